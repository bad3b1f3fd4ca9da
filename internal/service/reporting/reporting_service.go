package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/service/aggregation"
)

// YearChoices is how many years the report selector offers, current first.
const YearChoices = 5

// Gateway is the part of the API client reporting needs.
type Gateway interface {
	YearlyProfitSummary(ctx context.Context, sess models.Session, year int) ([]models.ProfitEntry, error)
	MonthlyProfitSummary(ctx context.Context, sess models.Session, monthKey string) ([]models.ProfitEntry, error)
	SalesBetween(ctx context.Context, sess models.Session, from, to models.Date) ([]models.SaleRecord, error)
	DamagesBetween(ctx context.Context, sess models.Session, from, to models.Date) ([]models.DamageRecord, error)
}

// SnapshotStore persists captured yearly reports.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap models.YearlySnapshot) error
	LatestSnapshot(ctx context.Context, email string, year int) (models.YearlySnapshot, error)
}

// Exporter publishes a captured yearly report somewhere outside the app.
type Exporter interface {
	ExportYearlyReport(ctx context.Context, snap models.YearlySnapshot) error
	ExportedYears(ctx context.Context, email string) ([]int, error)
}

// Service builds the report screens from the API's profit summaries.
type Service struct {
	gateway   Gateway
	snapshots SnapshotStore
	exporter  Exporter
	logger    *zap.Logger
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithSnapshotStore enables snapshot persistence.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *Service) { s.snapshots = store }
}

// WithExporter enables report export.
func WithExporter(exp Exporter) Option {
	return func(s *Service) { s.exporter = exp }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a new reporting service instance.
func NewService(gateway Gateway, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{gateway: gateway, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// YearOptions lists the selectable years, current year first.
func (s *Service) YearOptions() []int {
	return models.RecentYears(s.now(), YearChoices)
}

// CurrentYear is the default report year.
func (s *Service) CurrentYear() int {
	return s.now().Year()
}

// YearlyReport fetches the twelve month profits of year in one call.
func (s *Service) YearlyReport(ctx context.Context, sess models.Session, year int) (models.YearlyReport, error) {
	entries, err := s.gateway.YearlyProfitSummary(ctx, sess, year)
	if err != nil {
		return models.YearlyReport{}, fmt.Errorf("yearly profit %d: %w", year, err)
	}

	report := aggregation.BuildYearlyReport(year, entries)
	if matched := countMatched(entries); matched < len(entries) {
		s.logger.Warn("profit summary labels did not match month names",
			zap.Int("year", year),
			zap.Int("entries", len(entries)),
			zap.Int("matched", matched),
		)
	}
	return report, nil
}

func countMatched(entries []models.ProfitEntry) int {
	names := make(map[string]struct{}, models.MonthsInYear)
	for _, n := range models.MonthNames() {
		names[n] = struct{}{}
	}
	n := 0
	for _, e := range entries {
		if _, ok := names[e.Label]; ok {
			n++
		}
	}
	return n
}

// MonthDetail fetches the per-day profit of one month.
func (s *Service) MonthDetail(ctx context.Context, sess models.Session, year int, month time.Month) (models.MonthDetail, error) {
	if month < time.January || month > time.December {
		return models.MonthDetail{}, models.NewValidationError("month", "is out of range")
	}
	key := models.MonthKey(year, month)
	entries, err := s.gateway.MonthlyProfitSummary(ctx, sess, key)
	if err != nil {
		return models.MonthDetail{}, fmt.Errorf("monthly profit %s: %w", key, err)
	}

	days, total := aggregation.DailyProfits(entries)
	return models.MonthDetail{Year: year, Month: month, Key: key, Days: days, Total: total}, nil
}

// RangeReport loads sales and damages between from and to concurrently and
// totals them. An unset bound yields an empty summary without a call.
func (s *Service) RangeReport(ctx context.Context, sess models.Session, from, to models.Date) (aggregation.RangeSummary, error) {
	if from.IsZero() || to.IsZero() {
		return aggregation.SummarizeRange(nil, nil, from, to), nil
	}
	if to.Before(from.Time) {
		return aggregation.RangeSummary{}, models.NewValidationError("to", "must not be before from")
	}

	var (
		sales   []models.SaleRecord
		damages []models.DamageRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.gateway.SalesBetween(gctx, sess, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		damages, err = s.gateway.DamagesBetween(gctx, sess, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return aggregation.RangeSummary{}, fmt.Errorf("range %s..%s: %w", from, to, err)
	}

	return aggregation.SummarizeRange(sales, damages, from, to), nil
}

// SnapshotYear captures the yearly report of sess, stores it and exports it
// when those are configured.
func (s *Service) SnapshotYear(ctx context.Context, sess models.Session, year int) (models.YearlySnapshot, error) {
	report, err := s.YearlyReport(ctx, sess, year)
	if err != nil {
		return models.YearlySnapshot{}, err
	}
	snap := models.SnapshotOf(models.NormalizeEmail(sess.Email), report, s.now().UTC())

	if s.snapshots != nil {
		if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
			return snap, fmt.Errorf("save snapshot: %w", err)
		}
	}
	if s.exporter != nil {
		if s.closedAndExported(ctx, snap.Email, year) {
			s.logger.Debug("closed year already exported", zap.String("email", snap.Email), zap.Int("year", year))
		} else if err := s.exporter.ExportYearlyReport(ctx, snap); err != nil {
			return snap, fmt.Errorf("export snapshot: %w", err)
		}
	}

	s.logger.Info("yearly snapshot captured",
		zap.String("email", snap.Email),
		zap.Int("year", snap.Year),
		zap.String("total", snap.Total.StringFixed(2)),
	)
	return snap, nil
}

// closedAndExported reports whether year is over and its report already sits
// in the export. The running year is exported on every snapshot.
func (s *Service) closedAndExported(ctx context.Context, email string, year int) bool {
	if year >= s.now().Year() {
		return false
	}
	years, err := s.exporter.ExportedYears(ctx, email)
	if err != nil {
		s.logger.Warn("cannot read exported years", zap.String("email", email), zap.Error(err))
		return false
	}
	for _, y := range years {
		if y == year {
			return true
		}
	}
	return false
}

// LastSnapshot returns the most recent captured report of year for sess, if
// snapshots are stored.
func (s *Service) LastSnapshot(ctx context.Context, sess models.Session, year int) (models.YearlySnapshot, bool) {
	if s.snapshots == nil {
		return models.YearlySnapshot{}, false
	}
	snap, err := s.snapshots.LatestSnapshot(ctx, models.NormalizeEmail(sess.Email), year)
	if err != nil {
		s.logger.Debug("no snapshot", zap.String("email", sess.Email), zap.Int("year", year), zap.Error(err))
		return models.YearlySnapshot{}, false
	}
	return snap, true
}
