package sheets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
)

// ReportHeader is the first row of every report tab.
var ReportHeader = []interface{}{"Captured at", "Year", "Month #", "Month", "Profit"}

// blockRows is one row per month plus the total row.
const blockRows = models.MonthsInYear + 1

// ReportExporter writes yearly snapshots to a spreadsheet, one tab per email.
// Each year owns a block of rows that later exports overwrite.
type ReportExporter struct {
	repo   Repository
	logger *zap.Logger
}

// NewReportExporter wraps repo.
func NewReportExporter(repo Repository, logger *zap.Logger) *ReportExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportExporter{repo: repo, logger: logger}
}

// ExportYearlyReport writes the snapshot rows into the year's block of the
// email tab: captured at | year | month index | month | profit.
func (e *ReportExporter) ExportYearlyReport(ctx context.Context, snap models.YearlySnapshot) error {
	if err := e.repo.EnsureSheet(ctx, snap.Email); err != nil {
		return fmt.Errorf("export yearly report %s/%d: %w", snap.Email, snap.Year, err)
	}
	existing, err := e.repo.ReadRows(ctx, snap.Email)
	if err != nil {
		return fmt.Errorf("export yearly report %s/%d: %w", snap.Email, snap.Year, err)
	}

	if len(existing) == 0 {
		if err := e.repo.WriteRows(ctx, snap.Email, 1, [][]interface{}{ReportHeader}); err != nil {
			return fmt.Errorf("export yearly report %s/%d: header: %w", snap.Email, snap.Year, err)
		}
		existing = [][]interface{}{ReportHeader}
	}

	start := blockStart(existing, snap.Year)
	if err := e.repo.WriteRows(ctx, snap.Email, start, snapshotRows(snap)); err != nil {
		return fmt.Errorf("export yearly report %s/%d: %w", snap.Email, snap.Year, err)
	}
	e.logger.Info("yearly report exported",
		zap.String("email", snap.Email),
		zap.Int("year", snap.Year),
		zap.Int("row", start))
	return nil
}

// ExportedYears lists the distinct years already exported for email.
func (e *ReportExporter) ExportedYears(ctx context.Context, email string) ([]int, error) {
	if err := e.repo.EnsureSheet(ctx, email); err != nil {
		return nil, err
	}
	rows, err := e.repo.ReadRows(ctx, email)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var years []int
	for i, row := range rows {
		y, ok := rowYear(row)
		if !ok {
			if i > 0 {
				e.logger.Debug("skip report row with invalid year", zap.Int("row", i+1))
			}
			continue
		}
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	return years, nil
}

func snapshotRows(snap models.YearlySnapshot) [][]interface{} {
	captured := snap.CapturedAt.UTC().Format(time.RFC3339)
	year := strconv.Itoa(snap.Year)

	rows := make([][]interface{}, 0, blockRows)
	for _, m := range snap.Months {
		rows = append(rows, []interface{}{captured, year, int(m.Index) + 1, m.Name(), m.Profit.StringFixed(2)})
	}
	return append(rows, []interface{}{captured, year, "", "Total", snap.Total.StringFixed(2)})
}

// blockStart returns the 1-based row where year's block begins, or the first
// row after the populated ones when year has no block yet.
func blockStart(rows [][]interface{}, year int) int {
	for i, row := range rows {
		if y, ok := rowYear(row); ok && y == year {
			return i + 1
		}
	}
	return len(rows) + 1
}

func rowYear(row []interface{}) (int, bool) {
	if len(row) < 2 {
		return 0, false
	}
	y, err := strconv.Atoi(fmt.Sprint(row[1]))
	if err != nil {
		return 0, false
	}
	return y, true
}
