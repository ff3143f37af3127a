package model

import (
	"time"
)

type Like struct {
	URI        string    `gorm:"primaryKey;type:varchar(512)" json:"uri"`
	AuthorDID  string    `gorm:"type:varchar(255);not null" json:"author_did"`
	SubjectURI string    `gorm:"type:varchar(512);not null;index:idx_like_subject" json:"subject_uri"`
	IsDeleted  bool      `gorm:"type:tinyint(1);not null;default:0" json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}
