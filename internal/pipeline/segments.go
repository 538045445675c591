package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"
)

// Business value segments, highest first.
const (
	SegmentHigh   = "High Value"
	SegmentMedium = "Medium Value"
	SegmentLow    = "Low Value"
)

// Cumulative share of total sales below which a business is placed in the
// high and medium segments.
var (
	highCutoff   = decimal.NewFromFloat(0.5)
	mediumCutoff = decimal.NewFromFloat(0.8)
)

// BusinessSegment is one business and the segment it was assigned.
type BusinessSegment struct {
	Business   string
	SalesValue decimal.Decimal
	Segment    string
}

// RankBusinesses orders businesses by total sales value (ties by name) and
// assigns each a segment from the share of sales held by the businesses
// ranked above it: under 50% is high, under 80% medium, the rest low.
func RankBusinesses(ds *Dataset) []BusinessSegment {
	byBusiness := make(map[string]decimal.Decimal)
	for i := range ds.rows {
		tx := &ds.rows[i]
		byBusiness[tx.Business] = byBusiness[tx.Business].Add(tx.SalesValue)
	}

	ranked := make([]BusinessSegment, 0, len(byBusiness))
	total := decimal.Zero
	for name, v := range byBusiness {
		ranked = append(ranked, BusinessSegment{Business: name, SalesValue: v})
		total = total.Add(v)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].SalesValue.Equal(ranked[j].SalesValue) {
			return ranked[i].SalesValue.GreaterThan(ranked[j].SalesValue)
		}
		return ranked[i].Business < ranked[j].Business
	})

	before := decimal.Zero
	for i := range ranked {
		ranked[i].Segment = SegmentLow
		if total.IsPositive() {
			share := before.Div(total)
			switch {
			case share.LessThan(highCutoff):
				ranked[i].Segment = SegmentHigh
			case share.LessThan(mediumCutoff):
				ranked[i].Segment = SegmentMedium
			}
		}
		before = before.Add(ranked[i].SalesValue)
	}
	return ranked
}

// SegmentBusinesses summarizes RankBusinesses into the three segments, always
// returned in high, medium, low order.
func SegmentBusinesses(ds *Dataset) []model.SegmentStats {
	segs := []model.SegmentStats{
		{Segment: SegmentHigh},
		{Segment: SegmentMedium},
		{Segment: SegmentLow},
	}
	pos := map[string]int{SegmentHigh: 0, SegmentMedium: 1, SegmentLow: 2}

	total := decimal.Zero
	for _, b := range RankBusinesses(ds) {
		s := &segs[pos[b.Segment]]
		s.Businesses++
		s.SalesValue = s.SalesValue.Add(b.SalesValue)
		total = total.Add(b.SalesValue)
	}

	if total.IsPositive() {
		for i := range segs {
			segs[i].SharePercent, _ = segs[i].SalesValue.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		}
	}
	return segs
}
