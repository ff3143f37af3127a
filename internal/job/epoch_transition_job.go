package job

import (
	"Commonfeed/internal/pkg/logger"
	"Commonfeed/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// EpochTransitionJob 扫描投票窗口已到期的纪元并自动轮换
type EpochTransitionJob struct {
	governanceSvc service.GovernanceService
}

func NewEpochTransitionJob(governanceSvc service.GovernanceService) *EpochTransitionJob {
	return &EpochTransitionJob{
		governanceSvc: governanceSvc,
	}
}

func (s *EpochTransitionJob) Run() {
	traceID := "job-epoch-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	if err := s.governanceSvc.RunScheduledTransitions(ctx); err != nil {
		log.ErrorContext(ctx, "scheduled epoch transition job error", "err", err)
	}
}
