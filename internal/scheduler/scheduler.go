package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/config"
	"github.com/mamadbah2/stockbook/internal/service/audit"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	auditSvc *audit.Service
	cfg      config.AuditConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured
// timezone, falling back to the host timezone when it cannot be loaded.
func NewScheduler(cfg config.AuditConfig, auditSvc *audit.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []cron.Option{}
	if loc, err := time.LoadLocation(cfg.Timezone); err != nil {
		logger.Warn("invalid timezone, using host local time", zap.String("timezone", cfg.Timezone), zap.Error(err))
	} else {
		opts = append(opts, cron.WithLocation(loc))
	}

	return &Scheduler{
		cron:     cron.New(opts...),
		auditSvc: auditSvc,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the ledger audit job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runAudit)
	if err != nil {
		s.logger.Error("failed to schedule ledger audit", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.auditSvc.Run(ctx)
	if err != nil {
		s.logger.Error("ledger audit failed", zap.Error(err))
		return
	}
	if !report.Clean() {
		s.logger.Error("ledger audit found inconsistencies", zap.Int("findings", len(report.Findings)))
	}
}
