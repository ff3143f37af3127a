package cron

import log "log/slog"

// InitCron 注册周期重算与纪元自动切换两个任务并启动调度器
func InitCron(mgr *Manager) error {
	log.Info("starting cron jobs")
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	mgr.Start()
	return nil
}
