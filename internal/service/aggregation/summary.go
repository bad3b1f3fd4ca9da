package aggregation

import (
	"github.com/shopspring/decimal"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
)

// SalesSummary bundles the sales totals a view renders together.
type SalesSummary struct {
	Count  int
	Earned decimal.Decimal
	Spent  decimal.Decimal
	Profit decimal.Decimal
}

// SummarizeSales computes every sales total in one pass.
func SummarizeSales(sales []models.SaleRecord) SalesSummary {
	sum := SalesSummary{Count: len(sales), Earned: decimal.Zero, Spent: decimal.Zero}
	for _, s := range sales {
		sum.Earned = sum.Earned.Add(SaleEarned(s))
		sum.Spent = sum.Spent.Add(SaleSpent(s))
	}
	sum.Profit = sum.Earned.Sub(sum.Spent)
	return sum
}

// RangeSummary covers a date range: sales totals plus the separate damage
// loss ledger.
type RangeSummary struct {
	From       models.Date
	To         models.Date
	Sales      []models.SaleRecord
	Damages    []models.DamageRecord
	Totals     SalesSummary
	DamageLoss decimal.Decimal
}

// Empty reports whether the range produced no records at all.
func (r RangeSummary) Empty() bool {
	return len(r.Sales) == 0 && len(r.Damages) == 0
}

// SummarizeRange filters both collections to [from, to] and totals them.
func SummarizeRange(sales []models.SaleRecord, damages []models.DamageRecord, from, to models.Date) RangeSummary {
	s := FilterSalesByDateRange(sales, from, to)
	d := FilterDamagesByDateRange(damages, from, to)
	return RangeSummary{
		From:       from,
		To:         to,
		Sales:      s,
		Damages:    d,
		Totals:     SummarizeSales(s),
		DamageLoss: TotalDamageLoss(d),
	}
}
