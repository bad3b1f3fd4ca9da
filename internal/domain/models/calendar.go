package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthIndex is the canonical month key, 0 for January through 11 for December.
type MonthIndex int

// MonthsInYear is the number of rows in every yearly report.
const MonthsInYear = 12

// MonthIndexOf converts a time.Month to its canonical index.
func MonthIndexOf(m time.Month) MonthIndex {
	return MonthIndex(m - time.January)
}

// Month returns the time.Month for the index.
func (i MonthIndex) Month() time.Month {
	return time.January + time.Month(i)
}

// Name is the English month name the API uses as a label.
func (i MonthIndex) Name() string {
	return i.Month().String()
}

// Valid reports whether the index is within 0..11.
func (i MonthIndex) Valid() bool {
	return i >= 0 && i < MonthsInYear
}

// MonthNames lists the English month names in calendar order.
func MonthNames() []string {
	names := make([]string, MonthsInYear)
	for i := range names {
		names[i] = MonthIndex(i).Name()
	}
	return names
}

// ParseMonth accepts an exact English month name ("March") or a number 1..12.
func ParseMonth(label string) (time.Month, error) {
	label = strings.TrimSpace(label)
	if n, err := strconv.Atoi(label); err == nil {
		if n < 1 || n > 12 {
			return 0, NewValidationError("month", fmt.Sprintf("%d is out of range", n))
		}
		return time.Month(n), nil
	}
	for i := MonthIndex(0); i < MonthsInYear; i++ {
		if i.Name() == label {
			return i.Month(), nil
		}
	}
	return 0, NewValidationError("month", fmt.Sprintf("%q is not a month name", label))
}

// MonthKey builds the zero-padded YYYY-MM key the profit-summary endpoint expects.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// RecentYears returns the current year followed by the n-1 years before it.
func RecentYears(now time.Time, n int) []int {
	years := make([]int, 0, n)
	for i := 0; i < n; i++ {
		years = append(years, now.Year()-i)
	}
	return years
}
