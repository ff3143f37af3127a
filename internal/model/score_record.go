package model

import "time"

// ScoreRecord 一个帖子在某个纪元下的分数分解，保留历史纪元的行用于审计
type ScoreRecord struct {
	PostURI  string    `gorm:"primaryKey;type:varchar(512)" json:"post_uri"`
	EpochID  uint64    `gorm:"primaryKey;index:idx_score_epoch" json:"epoch_id"`
	Raw      WeightSet `gorm:"embedded;embeddedPrefix:raw_" json:"raw"`
	Weights  WeightSet `gorm:"embedded;embeddedPrefix:weight_" json:"weights"`
	Weighted WeightSet `gorm:"embedded;embeddedPrefix:weighted_" json:"weighted"`
	Total    float64   `gorm:"not null;index:idx_score_total" json:"total"`
	ScoredAt time.Time `json:"scored_at"`
}

func (ScoreRecord) TableName() string {
	return "score_records"
}
