package model

import "time"

// FirehoseCursor 单行游标表，记录最后一次持久化处理到的 time_us 位置
type FirehoseCursor struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Cursor    int64     `gorm:"not null" json:"cursor"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FirehoseCursor) TableName() string {
	return "firehose_cursor"
}
