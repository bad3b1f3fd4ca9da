// Package aggregation reduces fetched sales and damage records into the totals
// and month/day profit rows shown on the report screens. Every function is pure
// and works at full decimal precision; rounding belongs to presentation.
package aggregation

import (
	"github.com/shopspring/decimal"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
)

// SaleEarned is quantitySold × sellPrice for one sale.
func SaleEarned(s models.SaleRecord) decimal.Decimal {
	return s.SellPrice.Mul(decimal.NewFromInt(int64(s.QuantitySold)))
}

// SaleSpent is quantitySold × buyPrice for one sale.
func SaleSpent(s models.SaleRecord) decimal.Decimal {
	return s.BuyPrice.Mul(decimal.NewFromInt(int64(s.QuantitySold)))
}

// SaleProfit is (sellPrice − buyPrice) × quantitySold for one sale.
func SaleProfit(s models.SaleRecord) decimal.Decimal {
	return SaleEarned(s).Sub(SaleSpent(s))
}

// DamageLoss is quantityDamaged × buyPrice for one damage record.
func DamageLoss(d models.DamageRecord) decimal.Decimal {
	return d.BuyPrice.Mul(decimal.NewFromInt(int64(d.QuantityDamaged)))
}

func TotalEarned(sales []models.SaleRecord) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(SaleEarned(s))
	}
	return total
}

func TotalSpent(sales []models.SaleRecord) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(SaleSpent(s))
	}
	return total
}

// TotalProfit is TotalEarned minus TotalSpent.
func TotalProfit(sales []models.SaleRecord) decimal.Decimal {
	return TotalEarned(sales).Sub(TotalSpent(sales))
}

// TotalDamageLoss sums the buy-side value of damaged stock. It never feeds
// into profit.
func TotalDamageLoss(damages []models.DamageRecord) decimal.Decimal {
	total := decimal.Zero
	for _, d := range damages {
		total = total.Add(DamageLoss(d))
	}
	return total
}

// MonthlyProfitMap places server entries on the twelve canonical months.
// A label must equal the English month name exactly; anything else ("january",
// "Jan") is dropped and the month stays at zero. Repeated labels accumulate.
func MonthlyProfitMap(entries []models.ProfitEntry) [models.MonthsInYear]models.MonthProfit {
	var months [models.MonthsInYear]models.MonthProfit
	byName := make(map[string]models.MonthIndex, models.MonthsInYear)
	for i := range months {
		idx := models.MonthIndex(i)
		months[i] = models.MonthProfit{Index: idx, Profit: decimal.Zero}
		byName[idx.Name()] = idx
	}

	for _, e := range entries {
		idx, ok := byName[e.Label]
		if !ok {
			continue
		}
		months[idx].Profit = months[idx].Profit.Add(e.Profit)
	}
	return months
}

// YearTotal sums profit across the twelve months.
func YearTotal(months [models.MonthsInYear]models.MonthProfit) decimal.Decimal {
	total := decimal.Zero
	for _, m := range months {
		total = total.Add(m.Profit)
	}
	return total
}

// BuildYearlyReport combines MonthlyProfitMap and YearTotal.
func BuildYearlyReport(year int, entries []models.ProfitEntry) models.YearlyReport {
	months := MonthlyProfitMap(entries)
	return models.YearlyReport{Year: year, Months: months, Total: YearTotal(months)}
}

// DailyProfits converts month-summary entries to rows, keeping server order.
// Labels that are not dates keep a zero Date.
func DailyProfits(entries []models.ProfitEntry) ([]models.DailyProfit, decimal.Decimal) {
	days := make([]models.DailyProfit, 0, len(entries))
	total := decimal.Zero
	for _, e := range entries {
		row := models.DailyProfit{Label: e.Label, Profit: e.Profit}
		if d, err := models.ParseDate(e.Label); err == nil {
			row.Date = d
		}
		days = append(days, row)
		total = total.Add(e.Profit)
	}
	return days, total
}

// FilterSalesByDateRange keeps sales dated within [from, to]. Either bound
// unset yields an empty result.
func FilterSalesByDateRange(sales []models.SaleRecord, from, to models.Date) []models.SaleRecord {
	if from.IsZero() || to.IsZero() {
		return []models.SaleRecord{}
	}
	out := make([]models.SaleRecord, 0, len(sales))
	for _, s := range sales {
		if s.Date.Between(from, to) {
			out = append(out, s)
		}
	}
	return out
}

// FilterDamagesByDateRange is FilterSalesByDateRange for damage records.
func FilterDamagesByDateRange(damages []models.DamageRecord, from, to models.Date) []models.DamageRecord {
	if from.IsZero() || to.IsZero() {
		return []models.DamageRecord{}
	}
	out := make([]models.DamageRecord, 0, len(damages))
	for _, d := range damages {
		if d.Date.Between(from, to) {
			out = append(out, d)
		}
	}
	return out
}
