package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfitEntry is one row of a profit summary. Label is a day date for the
// monthly summary and an English month name for the yearly one.
type ProfitEntry struct {
	Label  string          `json:"date"`
	Profit decimal.Decimal `json:"profit"`
}

// MonthProfit is one canonical row of a yearly report.
type MonthProfit struct {
	Index  MonthIndex
	Profit decimal.Decimal
}

// Name returns the English month name for the row.
func (m MonthProfit) Name() string { return m.Index.Name() }

// YearlyReport holds twelve month rows, January first.
type YearlyReport struct {
	Year   int
	Months [MonthsInYear]MonthProfit
	Total  decimal.Decimal
}

// DailyProfit is one row of a month detail view.
type DailyProfit struct {
	Label  string
	Date   Date
	Profit decimal.Decimal
}

// MonthDetail lists the per-day profit of one month.
type MonthDetail struct {
	Year  int
	Month time.Month
	Key   string
	Days  []DailyProfit
	Total decimal.Decimal
}

// YearlySnapshot is a captured yearly report kept for history and export.
type YearlySnapshot struct {
	Email      string
	Year       int
	Months     [MonthsInYear]MonthProfit
	Total      decimal.Decimal
	CapturedAt time.Time
}

// SnapshotOf captures report for email at the given time.
func SnapshotOf(email string, report YearlyReport, at time.Time) YearlySnapshot {
	return YearlySnapshot{
		Email:      email,
		Year:       report.Year,
		Months:     report.Months,
		Total:      report.Total,
		CapturedAt: at,
	}
}
