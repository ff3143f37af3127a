package model

import (
	"time"
)

type Post struct {
	URI            string    `gorm:"primaryKey;type:varchar(512)" json:"uri"`
	CID            string    `gorm:"type:varchar(128);not null" json:"cid"`
	AuthorDID      string    `gorm:"type:varchar(255);not null;index:idx_author_did" json:"author_did"`
	Text           string    `gorm:"type:text" json:"text"`
	ReplyParentURI string    `gorm:"type:varchar(512)" json:"reply_parent_uri"`
	Langs          string    `gorm:"type:varchar(255)" json:"langs"`
	IsDeleted      bool      `gorm:"type:tinyint(1);not null;default:0" json:"is_deleted"`
	CreatedAt      time.Time `gorm:"index:idx_created_at" json:"created_at"`
	IndexedAt      time.Time `json:"indexed_at"`
}

func (Post) TableName() string {
	return "posts"
}
