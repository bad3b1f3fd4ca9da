package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/config"
	"github.com/sellsmart/sellsmart-web/internal/domain/models"
)

// Snapshotter captures a user's yearly report.
type Snapshotter interface {
	SnapshotYear(ctx context.Context, sess models.Session, year int) (models.YearlySnapshot, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron        *cron.Cron
	snapshotter Snapshotter
	cfg         config.ReportingConfig
	location    *time.Location
	logger      *zap.Logger
	now         func() time.Time
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, snapshotter Snapshotter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	// Standard 5-field parser: min, hour, dom, month, dow.
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:        c,
		snapshotter: snapshotter,
		cfg:         cfg,
		location:    loc,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Start registers the snapshot job and starts the cron loop. Nothing is
// scheduled when no report emails are configured.
func (s *Scheduler) Start() error {
	if len(s.cfg.Emails) == 0 {
		s.logger.Info("scheduler disabled: no report emails configured")
		return nil
	}

	s.logger.Info("starting scheduler",
		zap.String("schedule", s.cfg.CronSchedule),
		zap.String("timezone", s.location.String()),
		zap.Int("emails", len(s.cfg.Emails)),
	)

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.snapshotReports); err != nil {
		return fmt.Errorf("schedule report snapshot %q: %w", s.cfg.CronSchedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) snapshotReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce snapshots the current year for every configured email and returns
// how many succeeded. One failing email does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	year := s.now().In(s.location).Year()
	ok := 0
	for _, email := range s.cfg.Emails {
		sess := models.Session{Email: email}
		if _, err := s.snapshotter.SnapshotYear(ctx, sess, year); err != nil {
			s.logger.Error("failed to snapshot yearly report", zap.String("email", email), zap.Int("year", year), zap.Error(err))
			continue
		}
		ok++
	}
	s.logger.Info("report snapshot run finished", zap.Int("year", year), zap.Int("succeeded", ok), zap.Int("total", len(s.cfg.Emails)))
	return ok
}
