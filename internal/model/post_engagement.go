package model

import "time"

// PostEngagement 反范式化的互动计数表，由采集端尽力而为地累加。
// 增量重算依赖 updated_at 晚于打分时间来发现变更。
type PostEngagement struct {
	PostURI      string    `gorm:"primaryKey;type:varchar(512)" json:"post_uri"`
	LikesCount   int       `gorm:"not null;default:0" json:"likes_count"`
	RepostsCount int       `gorm:"not null;default:0" json:"reposts_count"`
	RepliesCount int       `gorm:"not null;default:0" json:"replies_count"`
	UpdatedAt    time.Time `gorm:"index:idx_engagement_updated" json:"updated_at"`
}

func (PostEngagement) TableName() string {
	return "post_engagements"
}
