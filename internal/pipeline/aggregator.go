// Package pipeline loads sales datasets and computes filtered and grouped views.
package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/source"
)

// Aggregate view result columns.
const (
	ColTotalQuantity   = "TOTAL_QUANTITY"
	ColTotalSalesValue = "TOTAL_SALES_VALUE"
)

// ErrGroupKeys is returned when Aggregate gets fewer than one or more than
// two grouping columns.
var ErrGroupKeys = errors.New("group by needs one or two columns")

// AggregateView is a grouped table with summed quantity and sales value.
// Rows appear in the order their group was first seen.
type AggregateView struct {
	GroupBy []string
	Rows    []model.GroupStats
}

// Columns returns the group-by columns followed by the two totals.
func (v *AggregateView) Columns() []string {
	cols := make([]string, 0, len(v.GroupBy)+2)
	cols = append(cols, v.GroupBy...)
	return append(cols, ColTotalQuantity, ColTotalSalesValue)
}

// Records returns the view as text rows, header first.
func (v *AggregateView) Records() [][]string {
	out := make([][]string, 0, len(v.Rows)+1)
	out = append(out, v.Columns())
	for _, r := range v.Rows {
		rec := make([]string, 0, len(r.Keys)+2)
		rec = append(rec, r.Keys...)
		rec = append(rec, strconv.FormatInt(r.TotalQuantity, 10), r.TotalSalesValue.String())
		out = append(out, rec)
	}
	return out
}

// Lookup returns the row whose keys equal keys.
func (v *AggregateView) Lookup(keys ...string) (model.GroupStats, bool) {
	for _, r := range v.Rows {
		if equalKeys(r.Keys, keys) {
			return r, true
		}
	}
	return model.GroupStats{}, false
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Aggregate partitions the dataset by the distinct values of groupBy and sums
// quantity and sales value within each partition. Empty cells form their own
// group with an empty key.
func Aggregate(ds *Dataset, groupBy ...string) (*AggregateView, error) {
	if len(groupBy) == 0 || len(groupBy) > 2 {
		return nil, fmt.Errorf("%w: got %d", ErrGroupKeys, len(groupBy))
	}

	cols := make([]string, len(groupBy))
	for i, name := range groupBy {
		col, err := ds.ResolveColumn(name)
		if err != nil {
			return nil, err
		}
		for _, prev := range cols[:i] {
			if prev == col {
				return nil, fmt.Errorf("%w: %s given twice", ErrGroupKeys, col)
			}
		}
		cols[i] = col
	}

	hasPeriod := false
	for _, c := range cols {
		if c == source.ColMonthYear {
			hasPeriod = true
		}
	}

	view := &AggregateView{GroupBy: cols}
	groupIdx := make(map[string]int)

	for i := range ds.rows {
		tx := &ds.rows[i]
		keys := make([]string, len(cols))
		for k, c := range cols {
			keys[k] = cellValue(tx, c, ds.index[c])
		}
		mapKey := strings.Join(keys, "\x00")

		gi, ok := groupIdx[mapKey]
		if !ok {
			g := model.GroupStats{Keys: keys}
			if hasPeriod {
				g.Period = tx.Period
			}
			view.Rows = append(view.Rows, g)
			gi = len(view.Rows) - 1
			groupIdx[mapKey] = gi
		}

		g := &view.Rows[gi]
		g.Count++
		g.TotalQuantity += tx.Quantity
		g.TotalSalesValue = g.TotalSalesValue.Add(tx.SalesValue)
	}

	return view, nil
}

// Filter returns the rows whose values equal every predicate (logical AND).
// An empty predicate map returns ds itself; no match yields an empty dataset
// with the same columns.
func Filter(ds *Dataset, predicates map[string]string) (*Dataset, error) {
	if len(predicates) == 0 {
		return ds, nil
	}

	type pred struct {
		col   string
		pos   int
		value string
	}
	preds := make([]pred, 0, len(predicates))
	for name, value := range predicates {
		col, err := ds.ResolveColumn(name)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred{col: col, pos: ds.index[col], value: value})
	}

	var rows []model.Transaction
	for i := range ds.rows {
		tx := &ds.rows[i]
		match := true
		for _, p := range preds {
			if cellValue(tx, p.col, p.pos) != p.value {
				match = false
				break
			}
		}
		if match {
			rows = append(rows, *tx)
		}
	}

	return newDataset(ds.sourceCols, rows), nil
}

// Totals computes the headline numbers for ds.
func Totals(ds *Dataset) model.Totals {
	t := model.Totals{Rows: ds.Len()}
	for i := range ds.rows {
		t.TotalQuantity += ds.rows[i].Quantity
		t.TotalSalesValue = t.TotalSalesValue.Add(ds.rows[i].SalesValue)
	}
	return t
}

// Distinct returns the distinct values of column in first-appearance order.
func Distinct(ds *Dataset, column string) ([]string, error) {
	col, err := ds.ResolveColumn(column)
	if err != nil {
		return nil, err
	}
	pos := ds.index[col]

	seen := make(map[string]struct{})
	var out []string
	for i := range ds.rows {
		v := cellValue(&ds.rows[i], col, pos)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// SortByPeriod orders rows chronologically, then by their keys.
func SortByPeriod(rows []model.GroupStats) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Period.Equal(rows[j].Period) {
			return rows[i].Period.Before(rows[j].Period)
		}
		return strings.Join(rows[i].Keys, "\x00") < strings.Join(rows[j].Keys, "\x00")
	})
}

// SortBySales orders rows by total sales value, largest first.
func SortBySales(rows []model.GroupStats) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalSalesValue.GreaterThan(rows[j].TotalSalesValue)
	})
}

// ComparePeriods picks the latest period in a MONTH_YEAR view and the one
// before it, for the month-over-month delta on the summary.
func ComparePeriods(rows []model.GroupStats) model.PeriodComparison {
	if len(rows) == 0 {
		return model.PeriodComparison{}
	}
	sorted := make([]model.GroupStats, len(rows))
	copy(sorted, rows)
	SortByPeriod(sorted)

	cmp := model.PeriodComparison{Current: sorted[len(sorted)-1]}
	if len(sorted) > 1 {
		cmp.Previous = sorted[len(sorted)-2]
		cmp.HasPrev = true
	}
	return cmp
}

// PercentChange returns (cur-prev)/prev*100, or 0 when prev is zero.
func PercentChange(cur, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		return 0
	}
	f, _ := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Float64()
	return f
}
