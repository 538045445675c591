package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/salesdash/internal/source"
)

const header = "DATE,ANONYMIZED CATEGORY,ANONYMIZED BUSINESS,ANONYMIZED LOCATION,QUANTITY,UNIT PRICE"

var sampleRows = []string{
	`2024-03-15,A,Business-1,Loc-1,3,10`,
	`2024-03-20,A,Business-2,Loc-2,7,20`,
	`2024-04-02,B,Business-1,Loc-1,5,"1,000.50"`,
	`2024-02-28,C,Business-3,Loc-3,1,4`,
	`2024-04-10,,Business-2,Loc-2,2,3`,
}

func loadString(t *testing.T, lines ...string) *Dataset {
	t.Helper()
	ds, err := LoadReader(strings.NewReader(strings.Join(lines, "\n")+"\n"), source.DefaultParseOptions())
	require.NoError(t, err)
	return ds
}

func writeFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func sample(t *testing.T) *Dataset {
	t.Helper()
	return loadString(t, append([]string{header}, sampleRows...)...)
}

func TestLoad_SalesValueIsQuantityTimesPrice(t *testing.T) {
	ds := sample(t)
	require.Equal(t, 5, ds.Len())

	for _, tx := range ds.Rows() {
		want := decimal.NewFromInt(tx.Quantity).Mul(tx.UnitPrice)
		assert.True(t, tx.SalesValue.Equal(want), "line %d: %s != %s", tx.Line, tx.SalesValue, want)
	}

	third := ds.Row(2)
	assert.True(t, third.SalesValue.Equal(decimal.RequireFromString("5002.5")))
	assert.Equal(t, "2024-04", third.MonthYear)
}

func TestLoad_Columns(t *testing.T) {
	ds := sample(t)
	assert.Equal(t, []string{
		"DATE", "ANONYMIZED_CATEGORY", "ANONYMIZED_BUSINESS", "ANONYMIZED_LOCATION",
		"QUANTITY", "UNIT_PRICE", "SALES_VALUE", "MONTH_YEAR",
	}, ds.Columns())
	assert.Len(t, ds.SourceColumns(), 6)

	v, err := ds.Value(0, "ANONYMIZED_LOCATION")
	require.NoError(t, err)
	assert.Equal(t, "Loc-1", v)

	v, err = ds.Value(2, "SALES_VALUE")
	require.NoError(t, err)
	assert.Equal(t, "5002.5", v)

	v, err = ds.Value(0, "date")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", v)
}

func TestLoad_IsDeterministic(t *testing.T) {
	path := writeFile(t, append([]string{header}, sampleRows...)...)

	a, err := Load(path, source.DefaultParseOptions())
	require.NoError(t, err)
	b, err := Load(path, source.DefaultParseOptions())
	require.NoError(t, err)

	require.Equal(t, a.Len(), b.Len())
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, a.Record(i), b.Record(i))
	}
}

func TestLoad_MalformedPriceReturnsNoDataset(t *testing.T) {
	path := writeFile(t, header, `2024-03-15,A,Business-1,Loc-1,1,12a3`)

	ds, err := Load(path, source.DefaultParseOptions())
	assert.Nil(t, ds)
	var perr *source.MalformedPriceError
	assert.ErrorAs(t, err, &perr)
}

func TestDataset_RowsAreCopies(t *testing.T) {
	ds := sample(t)
	rows := ds.Rows()
	rows[0].Fields[1] = "mutated"
	rows[0].Category = "mutated"

	v, err := ds.Value(0, "category")
	require.NoError(t, err)
	assert.Equal(t, "A", v)
	assert.Equal(t, "A", ds.Row(0).Fields[1])
}

func TestResolveColumn(t *testing.T) {
	ds := sample(t)

	cases := map[string]string{
		"category":            source.ColCategory,
		"Business":            source.ColBusiness,
		"month":               source.ColMonthYear,
		"MONTH_YEAR":          source.ColMonthYear,
		"anonymized location": "ANONYMIZED_LOCATION",
		"unit price":          source.ColUnitPrice,
	}
	for in, want := range cases {
		got, err := ds.ResolveColumn(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ds.ResolveColumn("region")
	var serr *source.SchemaError
	assert.ErrorAs(t, err, &serr)
	assert.False(t, ds.HasColumn("region"))
}

func TestAggregate_Scenario(t *testing.T) {
	ds := loadString(t, header,
		`2024-03-01,A,Business-1,Loc-1,3,10`,
		`2024-03-09,A,Business-2,Loc-1,7,20`,
	)

	view, err := Aggregate(ds, "month_year", "category")
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)

	row := view.Rows[0]
	assert.Equal(t, []string{"2024-03", "A"}, row.Keys)
	assert.Equal(t, int64(10), row.TotalQuantity)
	assert.True(t, row.TotalSalesValue.Equal(decimal.NewFromInt(170)))
	assert.Equal(t, 2, row.Count)
	assert.Equal(t, []string{"MONTH_YEAR", "ANONYMIZED_CATEGORY", "TOTAL_QUANTITY", "TOTAL_SALES_VALUE"}, view.Columns())
}

func TestAggregate_ConservesTotals(t *testing.T) {
	ds := sample(t)
	totals := Totals(ds)

	for _, key := range []string{"category", "business", "month", "ANONYMIZED_LOCATION"} {
		view, err := Aggregate(ds, key)
		require.NoError(t, err)

		var qty int64
		sales := decimal.Zero
		for _, r := range view.Rows {
			qty += r.TotalQuantity
			sales = sales.Add(r.TotalSalesValue)
		}
		assert.Equal(t, totals.TotalQuantity, qty, key)
		assert.True(t, totals.TotalSalesValue.Equal(sales), key)
	}
}

func TestAggregate_FirstAppearanceOrder(t *testing.T) {
	view, err := Aggregate(sample(t), "month")
	require.NoError(t, err)

	var keys []string
	for _, r := range view.Rows {
		keys = append(keys, r.Key(0))
	}
	assert.Equal(t, []string{"2024-03", "2024-04", "2024-02"}, keys)

	SortByPeriod(view.Rows)
	assert.Equal(t, "2024-02", view.Rows[0].Key(0))
	assert.Equal(t, "2024-04", view.Rows[2].Key(0))
}

func TestAggregate_MissingValuesFormOwnGroup(t *testing.T) {
	view, err := Aggregate(sample(t), "category")
	require.NoError(t, err)

	row, ok := view.Lookup("")
	require.True(t, ok)
	assert.Equal(t, int64(2), row.TotalQuantity)
	assert.Len(t, view.Rows, 4)
}

func TestAggregate_EmptyDataset(t *testing.T) {
	ds := loadString(t, header)

	view, err := Aggregate(ds, "category")
	require.NoError(t, err)
	assert.Empty(t, view.Rows)
	assert.Equal(t, []string{"ANONYMIZED_CATEGORY", "TOTAL_QUANTITY", "TOTAL_SALES_VALUE"}, view.Columns())
	assert.Len(t, view.Records(), 1)
}

func TestAggregate_GroupKeyErrors(t *testing.T) {
	ds := sample(t)

	_, err := Aggregate(ds)
	assert.ErrorIs(t, err, ErrGroupKeys)

	_, err = Aggregate(ds, "category", "business", "month")
	assert.ErrorIs(t, err, ErrGroupKeys)

	_, err = Aggregate(ds, "category", "ANONYMIZED_CATEGORY")
	assert.ErrorIs(t, err, ErrGroupKeys)

	_, err = Aggregate(ds, "region")
	var serr *source.SchemaError
	assert.True(t, errors.As(err, &serr))
}

func TestFilter_NoMatchKeepsSchema(t *testing.T) {
	ds := sample(t)

	out, err := Filter(ds, map[string]string{"category": "Z"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, ds.Columns(), out.Columns())
}

func TestFilter_IsIdempotent(t *testing.T) {
	ds := sample(t)
	preds := map[string]string{"category": "A", "month": "2024-03"}

	once, err := Filter(ds, preds)
	require.NoError(t, err)
	twice, err := Filter(once, preds)
	require.NoError(t, err)

	require.Equal(t, 2, once.Len())
	require.Equal(t, once.Len(), twice.Len())
	for i := 0; i < once.Len(); i++ {
		assert.Equal(t, once.Record(i), twice.Record(i))
	}
}

func TestFilter_ANDsPredicates(t *testing.T) {
	ds := sample(t)

	out, err := Filter(ds, map[string]string{"business": "Business-1", "month": "2024-04"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "B", out.Row(0).Category)
}

func TestFilter_EmptyPredicatesReturnsInput(t *testing.T) {
	ds := sample(t)
	out, err := Filter(ds, nil)
	require.NoError(t, err)
	assert.Same(t, ds, out)
}

func TestFilter_UnknownColumn(t *testing.T) {
	_, err := Filter(sample(t), map[string]string{"region": "north"})
	var serr *source.SchemaError
	assert.ErrorAs(t, err, &serr)
}

func TestDistinct(t *testing.T) {
	vals, err := Distinct(sample(t), "category")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", ""}, vals)
}

func TestComparePeriods(t *testing.T) {
	view, err := Aggregate(sample(t), "month")
	require.NoError(t, err)

	cmp := ComparePeriods(view.Rows)
	require.True(t, cmp.HasPrev)
	assert.Equal(t, "2024-04", cmp.Current.Key(0))
	assert.Equal(t, "2024-03", cmp.Previous.Key(0))

	assert.False(t, ComparePeriods(nil).HasPrev)
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 50.0, PercentChange(decimal.NewFromInt(150), decimal.NewFromInt(100)), 1e-9)
	assert.Zero(t, PercentChange(decimal.NewFromInt(5), decimal.Zero))
}

func TestSegmentBusinesses(t *testing.T) {
	// Sales: B1 = 60, B2 = 25, B3 = 10, B4 = 5.
	ds := loadString(t, header,
		`2024-01-01,A,B1,L,6,10`,
		`2024-01-01,A,B2,L,5,5`,
		`2024-01-01,A,B3,L,2,5`,
		`2024-01-01,A,B4,L,1,5`,
	)

	ranked := RankBusinesses(ds)
	require.Len(t, ranked, 4)
	assert.Equal(t, "B1", ranked[0].Business)
	assert.Equal(t, SegmentHigh, ranked[0].Segment)
	assert.Equal(t, SegmentMedium, ranked[1].Segment)
	assert.Equal(t, SegmentLow, ranked[2].Segment)
	assert.Equal(t, SegmentLow, ranked[3].Segment)

	segs := SegmentBusinesses(ds)
	require.Len(t, segs, 3)
	assert.Equal(t, 1, segs[0].Businesses)
	assert.Equal(t, 1, segs[1].Businesses)
	assert.Equal(t, 2, segs[2].Businesses)
	assert.InDelta(t, 60.0, segs[0].SharePercent, 1e-9)
	assert.True(t, segs[2].SalesValue.Equal(decimal.NewFromInt(15)))
}

func TestSegmentBusinesses_Empty(t *testing.T) {
	segs := SegmentBusinesses(loadString(t, header))
	require.Len(t, segs, 3)
	for _, s := range segs {
		assert.Zero(t, s.Businesses)
		assert.Zero(t, s.SharePercent)
	}
}
