package scheduler

import (
	"context"
	"time"

	"go-payroll/internal/payroll"
	"go-payroll/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Config struct {
	Enabled  bool
	Schedule string
	Mode     string
	// Upper bound for one run; a wedged directory call must not pile up
	// overlapping runs.
	RunTimeout time.Duration
}

// Scheduler fires the recurring bulk payroll run. It is a thin trigger: all
// generation semantics live in the payroll service.
type Scheduler struct {
	cron   *cron.Cron
	cfg    Config
	svc    payroll.Service
	logger *zap.Logger
}

func New(cfg Config, svc payroll.Service, logger ...*zap.Logger) *Scheduler {
	l := zap.L().Named("scheduler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("scheduler")
	}

	if cfg.Schedule == "" {
		cfg.Schedule = "0 9 1 * *"
	}
	if cfg.Mode == "" {
		cfg.Mode = payroll.BulkModeBestEffort
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}

	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		cfg:    cfg,
		svc:    svc,
		logger: l,
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("payroll automation disabled, scheduler not started")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.runOnce); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("payroll automation scheduled",
		zap.String("schedule", s.cfg.Schedule),
		zap.String("mode", s.cfg.Mode),
	)
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()

	// Synthetic request id so the whole run is traceable in the logs.
	ctx = contextutil.WithRequestID(ctx, "cron-"+uuid.NewString())

	result, err := s.svc.RunBulk(ctx, s.cfg.Mode)
	if err != nil {
		s.logger.Error("scheduled bulk payroll run failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled bulk payroll run finished",
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
}
