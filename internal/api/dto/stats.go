package dto

import "time"

// IngestStatsDTO 摄取侧运行状态
type IngestStatsDTO struct {
	State           string    `json:"state"`
	UsingFallback   bool      `json:"using_fallback"`
	Processed       int64     `json:"processed"`
	ProcessedWindow int64     `json:"processed_last_window"`
	Dropped         int64     `json:"dropped"`
	ActiveHandlers  int64     `json:"active_handlers"`
	QueueDepth      int       `json:"queue_depth"`
	Cursor          int64     `json:"cursor"`
	LastEventAt     time.Time `json:"last_event_at"`
}

// ScoringStatsDTO 最近一次重算的摘要
type ScoringStatsDTO struct {
	Running    bool      `json:"running"`
	Mode       string    `json:"mode,omitempty"`
	EpochID    uint64    `json:"epoch_id,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Candidates int       `json:"candidates,omitempty"`
	Filtered   int       `json:"filtered,omitempty"`
	Scored     int       `json:"scored,omitempty"`
	Published  int       `json:"published,omitempty"`
}

// StatsDTO 运维状态聚合
type StatsDTO struct {
	Ingest      IngestStatsDTO  `json:"ingest"`
	Scoring     ScoringStatsDTO `json:"scoring"`
	Subscribers int64           `json:"subscribers"`
}

// FeedEntryDTO 排行榜单条
type FeedEntryDTO struct {
	URI   string  `json:"uri"`
	Score float64 `json:"score"`
}

// FeedQueryDTO 排行榜查询参数
type FeedQueryDTO struct {
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}
