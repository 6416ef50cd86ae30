package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/config"
	"github.com/mamadbah2/agrosupply/internal/domain/models"
)

// Sweeper runs one overdue sweep.
type Sweeper interface {
	RunOverdueSweep(ctx context.Context) (models.OverdueReport, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, sweeper Sweeper, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	// Standard 5-field cron expressions (min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		sweeper:  sweeper,
		schedule: cfg.OverdueCronSchedule,
		timeout:  2 * time.Minute,
		logger:   logger,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("overdue_schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.runOverdueSweep); err != nil {
		return fmt.Errorf("schedule overdue sweep: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runOverdueSweep() {
	s.logger.Info("running overdue sweep")
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.sweeper.RunOverdueSweep(ctx)
	if err != nil {
		s.logger.Error("overdue sweep failed", zap.Error(err))
		return
	}

	s.logger.Info("overdue sweep completed",
		zap.Int("pending", report.PendingCount),
		zap.Int("overdue", report.OverdueCount))
}
