package dto

import "time"

// WeightsDTO 五个评分维度的权重，提交时要求总和约等于 1
type WeightsDTO struct {
	Recency    *float64 `json:"recency" binding:"required" validate:"gte=0,lte=1"`
	Engagement *float64 `json:"engagement" binding:"required" validate:"gte=0,lte=1"`
	Bridging   *float64 `json:"bridging" binding:"required" validate:"gte=0,lte=1"`
	Diversity  *float64 `json:"diversity" binding:"required" validate:"gte=0,lte=1"`
	Relevance  *float64 `json:"relevance" binding:"required" validate:"gte=0,lte=1"`
}

// SubmitVoteDTO 提交权重投票
type SubmitVoteDTO struct {
	Weights WeightsDTO `json:"weights" binding:"required"`
}

// TransitionDTO 手动轮换请求
type TransitionDTO struct {
	Force bool `json:"force"`
}

// OpenVotingDTO 开启投票窗口
type OpenVotingDTO struct {
	VotingEndsAt   *time.Time `json:"voting_ends_at"`
	AutoTransition bool       `json:"auto_transition"`
}

// WeightsOverrideDTO 以指定权重开启新纪元
type WeightsOverrideDTO struct {
	Weights WeightsDTO `json:"weights" binding:"required"`
}

// RulesOverrideDTO 覆写当前 Epoch 的关键字规则
type RulesOverrideDTO struct {
	IncludeKeywords []string `json:"include_keywords"`
	ExcludeKeywords []string `json:"exclude_keywords"`
}

// EpochWeightsDTO 纪元生效的权重视图
type EpochWeightsDTO struct {
	Recency    float64 `json:"recency"`
	Engagement float64 `json:"engagement"`
	Bridging   float64 `json:"bridging"`
	Diversity  float64 `json:"diversity"`
	Relevance  float64 `json:"relevance"`
}

// EpochDTO 当前 Epoch 视图
type EpochDTO struct {
	ID              uint64          `json:"id"`
	Status          string          `json:"status"`
	Weights         EpochWeightsDTO `json:"weights"`
	IncludeKeywords []string        `json:"include_keywords"`
	ExcludeKeywords []string        `json:"exclude_keywords"`
	VotingEndsAt    *time.Time      `json:"voting_ends_at,omitempty"`
	AutoTransition  bool            `json:"auto_transition"`
	VoteCount       int             `json:"vote_count"`
	CreatedAt       time.Time       `json:"created_at"`
}

// RegisterSubscriberDTO 订阅者注册
type RegisterSubscriberDTO struct {
	Handle string `json:"handle" binding:"required" validate:"min=1,max=253"`
}

// SubscriberDTO 订阅者视图
type SubscriberDTO struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}
