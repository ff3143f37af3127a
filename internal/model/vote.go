package model

import "time"

// Vote 一个订阅者在一个纪元内的一票，重复提交为更新
type Vote struct {
	VoterDID  string    `gorm:"primaryKey;type:varchar(255)" json:"voter_did"`
	EpochID   uint64    `gorm:"primaryKey" json:"epoch_id"`
	Weights   WeightSet `gorm:"embedded;embeddedPrefix:weight_" json:"weights"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Vote) TableName() string {
	return "votes"
}
