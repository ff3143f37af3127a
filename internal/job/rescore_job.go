package job

import (
	"Commonfeed/internal/pkg/logger"
	"Commonfeed/internal/scoring"
	"context"
	"errors"
	log "log/slog"

	"github.com/google/uuid"
)

// RescoreJob 周期性重算排行榜并发布到排行缓存
type RescoreJob struct {
	pipeline *scoring.Pipeline
}

func NewRescoreJob(pipeline *scoring.Pipeline) *RescoreJob {
	return &RescoreJob{
		pipeline: pipeline,
	}
}

func (s *RescoreJob) Run() {
	traceID := "job-rescore-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	stats, err := s.pipeline.Run(ctx)
	if err != nil {
		if errors.Is(err, scoring.ErrRescoreInProgress) {
			log.WarnContext(ctx, "rescore still running, skipping this tick")
			return
		}
		log.ErrorContext(ctx, "rescore job error", "err", err)
		return
	}

	log.InfoContext(ctx, "rescore job finished",
		"mode", stats.Mode,
		"epoch_id", stats.EpochID,
		"candidates", stats.Candidates,
		"scored", stats.Scored,
		"filtered", stats.Filtered,
		"published", stats.Published,
		"duration", stats.Duration)
}
