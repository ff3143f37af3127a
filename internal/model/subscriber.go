package model

import "time"

// Subscriber 订阅了本 feed 的身份，投票资格以此表为准
type Subscriber struct {
	DID       string    `gorm:"primaryKey;type:varchar(255)" json:"did"`
	Handle    string    `gorm:"type:varchar(255)" json:"handle"`
	CreatedAt time.Time `json:"created_at"`
}

func (Subscriber) TableName() string {
	return "subscribers"
}
