package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals holds the headline numbers for a set of transactions.
type Totals struct {
	Rows            int
	TotalQuantity   int64
	TotalSalesValue decimal.Decimal
}

// GroupStats is one row of an aggregate view.
type GroupStats struct {
	Keys            []string // one value per group-by column, in group-by order
	Period          time.Time
	Count           int
	TotalQuantity   int64
	TotalSalesValue decimal.Decimal
}

// Key returns the value of the i-th group column, or "" when out of range.
func (g GroupStats) Key(i int) string {
	if i < 0 || i >= len(g.Keys) {
		return ""
	}
	return g.Keys[i]
}

// SegmentStats summarizes the businesses that fall into one value segment.
type SegmentStats struct {
	Segment      string
	Businesses   int
	SalesValue   decimal.Decimal
	SharePercent float64
}

// PeriodComparison holds the selected month and the one before it.
type PeriodComparison struct {
	Current  GroupStats
	Previous GroupStats
	HasPrev  bool
}
