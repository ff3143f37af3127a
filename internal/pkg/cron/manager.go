package cron

import (
	"Commonfeed/internal/api/config"
	"Commonfeed/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine             *cron.Cron
	rescoreJob         *job.RescoreJob
	epochTransitionJob *job.EpochTransitionJob
}

func NewCronManager(rescoreJob *job.RescoreJob, epochTransitionJob *job.EpochTransitionJob) *Manager {
	return &Manager{
		engine:             cron.New(cron.WithSeconds()),
		rescoreJob:         rescoreJob,
		epochTransitionJob: epochTransitionJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	rescoreSpec := config.Cfg.Scoring.Cron
	if rescoreSpec == "" {
		rescoreSpec = "0 */10 * * * *"
	}
	if _, err := s.engine.AddJob(rescoreSpec, s.rescoreJob); err != nil {
		return err
	}

	transitionSpec := config.Cfg.Governance.TransitionCron
	if transitionSpec == "" {
		transitionSpec = "0 * * * * *"
	}
	if _, err := s.engine.AddJob(transitionSpec, s.epochTransitionJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
