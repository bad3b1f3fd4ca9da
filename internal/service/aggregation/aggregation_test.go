package aggregation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sale(qty int, buy, sell string, date models.Date) models.SaleRecord {
	return models.SaleRecord{Name: "Pen", QuantitySold: qty, BuyPrice: d(buy), SellPrice: d(sell), Date: date}
}

func TestTotalsScenario(t *testing.T) {
	sales := []models.SaleRecord{sale(10, "2", "5", models.NewDate(2024, 3, 4))}

	if got := TotalEarned(sales); !got.Equal(d("50")) {
		t.Fatalf("earned = %s", got)
	}
	if got := TotalSpent(sales); !got.Equal(d("20")) {
		t.Fatalf("spent = %s", got)
	}
	if got := TotalProfit(sales); !got.Equal(d("30")) {
		t.Fatalf("profit = %s", got)
	}

	damages := []models.DamageRecord{{Name: "Pen", QuantityDamaged: 4, BuyPrice: d("2")}}
	if got := TotalDamageLoss(damages); !got.Equal(d("8")) {
		t.Fatalf("damage loss = %s", got)
	}
}

func TestTotalEarnedSumsQuantityTimesSellPrice(t *testing.T) {
	sales := []models.SaleRecord{sale(2, "0", "10", models.Date{}), sale(1, "0", "5", models.Date{})}
	if got := TotalEarned(sales); !got.Equal(d("25")) {
		t.Fatalf("earned = %s", got)
	}
}

func TestProfitIsEarnedMinusSpent(t *testing.T) {
	sets := [][]models.SaleRecord{
		nil,
		{sale(3, "1.10", "1.15", models.Date{})},
		{sale(1, "9.99", "4.50", models.Date{}), sale(7, "0.01", "0.03", models.Date{})},
		{sale(1000, "0.333", "0.334", models.Date{}), sale(1, "100", "100", models.Date{})},
	}
	for i, s := range sets {
		if !TotalProfit(s).Equal(TotalEarned(s).Sub(TotalSpent(s))) {
			t.Fatalf("set %d: profit mismatch", i)
		}
	}
}

func TestFullPrecisionAccumulation(t *testing.T) {
	var sales []models.SaleRecord
	for i := 0; i < 1000; i++ {
		sales = append(sales, sale(1, "0", "0.001", models.Date{}))
	}
	if got := TotalEarned(sales); !got.Equal(d("1")) {
		t.Fatalf("earned = %s", got)
	}
}

func TestEmptyCollectionsYieldZero(t *testing.T) {
	if !TotalEarned(nil).IsZero() || !TotalSpent(nil).IsZero() || !TotalProfit(nil).IsZero() || !TotalDamageLoss(nil).IsZero() {
		t.Fatalf("expected zero totals")
	}
	months := MonthlyProfitMap(nil)
	for i, m := range months {
		if m.Index != models.MonthIndex(i) || !m.Profit.IsZero() {
			t.Fatalf("month %d = %+v", i, m)
		}
	}
	if !YearTotal(months).IsZero() {
		t.Fatalf("year total should be zero")
	}
}

func TestMonthlyProfitMapExactLabels(t *testing.T) {
	entries := []models.ProfitEntry{
		{Label: "January", Profit: d("10.5")},
		{Label: "March", Profit: d("-3")},
		{Label: "december", Profit: d("99")},
		{Label: "Dec", Profit: d("99")},
		{Label: "March", Profit: d("1")},
	}
	months := MonthlyProfitMap(entries)

	if !months[0].Profit.Equal(d("10.5")) {
		t.Fatalf("january = %s", months[0].Profit)
	}
	if !months[2].Profit.Equal(d("-2")) {
		t.Fatalf("march = %s", months[2].Profit)
	}
	if !months[11].Profit.IsZero() {
		t.Fatalf("lowercase label must not match, december = %s", months[11].Profit)
	}
	if months[11].Name() != "December" {
		t.Fatalf("row 11 = %s", months[11].Name())
	}
	if got := YearTotal(months); !got.Equal(d("8.5")) {
		t.Fatalf("year total = %s", got)
	}

	report := BuildYearlyReport(2024, entries)
	if report.Year != 2024 || !report.Total.Equal(d("8.5")) {
		t.Fatalf("report = %+v", report)
	}
}

func TestDateRangeFilterIsInclusive(t *testing.T) {
	from := models.NewDate(2024, time.March, 1)
	to := models.NewDate(2024, time.March, 31)
	sales := []models.SaleRecord{
		sale(1, "1", "2", from),
		sale(1, "1", "2", to),
		sale(1, "1", "2", models.NewDate(2024, time.February, 29)),
		sale(1, "1", "2", models.NewDate(2024, time.April, 1)),
		sale(1, "1", "2", models.NewDate(2024, time.March, 15)),
	}
	got := FilterSalesByDateRange(sales, from, to)
	if len(got) != 3 {
		t.Fatalf("expected 3 sales, got %d", len(got))
	}

	damages := []models.DamageRecord{{Date: from}, {Date: to}, {Date: models.NewDate(2024, 4, 1)}}
	if n := len(FilterDamagesByDateRange(damages, from, to)); n != 2 {
		t.Fatalf("expected 2 damages, got %d", n)
	}
}

func TestDateRangeFilterUnsetBound(t *testing.T) {
	sales := []models.SaleRecord{sale(1, "1", "2", models.NewDate(2024, 3, 1))}
	if n := len(FilterSalesByDateRange(sales, models.Date{}, models.NewDate(2024, 12, 31))); n != 0 {
		t.Fatalf("unset from should give empty, got %d", n)
	}
	if n := len(FilterDamagesByDateRange([]models.DamageRecord{{Date: models.NewDate(2024, 3, 1)}}, models.NewDate(2024, 1, 1), models.Date{})); n != 0 {
		t.Fatalf("unset to should give empty, got %d", n)
	}
}

func TestSummarizeRangeKeepsDamagesOutOfProfit(t *testing.T) {
	from, to := models.NewDate(2024, 1, 1), models.NewDate(2024, 1, 31)
	sales := []models.SaleRecord{sale(10, "2", "5", models.NewDate(2024, 1, 10))}
	damages := []models.DamageRecord{{QuantityDamaged: 4, BuyPrice: d("2"), Date: models.NewDate(2024, 1, 11)}}

	sum := SummarizeRange(sales, damages, from, to)
	if !sum.Totals.Profit.Equal(d("30")) {
		t.Fatalf("profit = %s", sum.Totals.Profit)
	}
	if !sum.Totals.Earned.Equal(d("50")) {
		t.Fatalf("income = %s", sum.Totals.Earned)
	}
	if !sum.DamageLoss.Equal(d("8")) {
		t.Fatalf("loss = %s", sum.DamageLoss)
	}
	if sum.Empty() {
		t.Fatalf("summary should not be empty")
	}
	if !SummarizeRange(nil, nil, from, to).Empty() {
		t.Fatalf("nil input should be empty")
	}
}

func TestDailyProfits(t *testing.T) {
	days, total := DailyProfits([]models.ProfitEntry{
		{Label: "2024-03-01", Profit: d("5")},
		{Label: "2024-03-02", Profit: d("-1.25")},
	})
	if len(days) != 2 || days[0].Date != models.NewDate(2024, 3, 1) {
		t.Fatalf("days = %+v", days)
	}
	if !total.Equal(d("3.75")) {
		t.Fatalf("total = %s", total)
	}
}
