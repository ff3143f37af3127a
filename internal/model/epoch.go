package model

import "time"

// Epoch 一个治理纪元：一组固定生效的权重与内容规则。
// 任意时刻只有一个纪元处于非 closed 状态，它就是打分管道读取的权重来源。
type Epoch struct {
	ID              uint64     `gorm:"primaryKey" json:"id"`
	Status          string     `gorm:"type:varchar(16);not null;index:idx_epoch_status" json:"status"` // active, voting, closed
	Weights         WeightSet  `gorm:"embedded;embeddedPrefix:weight_" json:"weights"`
	IncludeKeywords StringList `gorm:"type:text" json:"include_keywords"`
	ExcludeKeywords StringList `gorm:"type:text" json:"exclude_keywords"`
	VotingEndsAt    *time.Time `json:"voting_ends_at"`
	AutoTransition  bool       `gorm:"type:tinyint(1);not null;default:0" json:"auto_transition"`
	VoteCount       int        `gorm:"not null;default:0" json:"vote_count"`
	CreatedAt       time.Time  `json:"created_at"`
	ClosedAt        *time.Time `json:"closed_at"`
}

func (Epoch) TableName() string {
	return "epochs"
}
