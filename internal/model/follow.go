package model

import "time"

type Follow struct {
	URI        string    `gorm:"primaryKey;type:varchar(512)" json:"uri"`
	AuthorDID  string    `gorm:"type:varchar(255);not null;index:idx_follow_author" json:"author_did"`
	SubjectDID string    `gorm:"type:varchar(255);not null;index:idx_follow_subject" json:"subject_did"`
	IsDeleted  bool      `gorm:"type:tinyint(1);not null;default:0" json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}
