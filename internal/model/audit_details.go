package model

import (
	log "log/slog"

	"github.com/goccy/go-json"
)

// AuditDetails 各审计动作的详情载荷，按动作各自成型
type AuditDetails interface {
	isAuditDetails()
}

// TransitionDetails 纪元切换详情
type TransitionDetails struct {
	FromEpochID uint64    `json:"from_epoch_id"`
	NewEpochID  uint64    `json:"new_epoch_id"`
	VoteCount   int       `json:"vote_count"`
	Forced      bool      `json:"forced"`
	Trigger     string    `json:"trigger"` // manual, scheduled, override
	NewWeights  WeightSet `json:"new_weights"`
}

// VoteDetails 投票提交详情
type VoteDetails struct {
	Weights     WeightSet `json:"weights"`
	Resubmitted bool      `json:"resubmitted"`
}

// VotingOpenedDetails 开启投票窗口详情
type VotingOpenedDetails struct {
	VotingEndsAt   string `json:"voting_ends_at"`
	AutoTransition bool   `json:"auto_transition"`
}

// RulesOverrideDetails 内容规则覆写详情
type RulesOverrideDetails struct {
	IncludeKeywords []string `json:"include_keywords"`
	ExcludeKeywords []string `json:"exclude_keywords"`
}

// GenericDetails 无专用结构时的兜底载荷
type GenericDetails map[string]interface{}

func (TransitionDetails) isAuditDetails()    {}
func (VoteDetails) isAuditDetails()          {}
func (VotingOpenedDetails) isAuditDetails()  {}
func (RulesOverrideDetails) isAuditDetails() {}
func (GenericDetails) isAuditDetails()       {}

// MarshalAuditDetails 序列化详情载荷，失败时降级为空对象而非中断审计写入
func MarshalAuditDetails(details AuditDetails) string {
	if details == nil {
		return "{}"
	}
	b, err := json.Marshal(details)
	if err != nil {
		log.Error("marshal audit details error", "err", err)
		return "{}"
	}
	return string(b)
}
