package model

import "time"

const (
	AuditActionVoteSubmitted   = "vote_submitted"
	AuditActionVotingOpened    = "voting_opened"
	AuditActionEpochTransition = "epoch_transition"
	AuditActionRulesOverride   = "rules_override"
	AuditActionWeightsOverride = "weights_override"
)

// AuditLog 只追加的治理审计流水，写入后永不更新或删除
type AuditLog struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Action    string    `gorm:"type:varchar(32);not null;index:idx_audit_action" json:"action"`
	EpochID   *uint64   `gorm:"index:idx_audit_epoch" json:"epoch_id"`
	ActorDID  string    `gorm:"type:varchar(255);not null" json:"actor_did"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
