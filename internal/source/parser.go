// Package source reads sales CSV files into typed, enriched transactions.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"
)

const utf8BOM = "\uFEFF"

// ParseResult holds the output of parsing one source.
type ParseResult struct {
	Columns []string // normalized source columns, in file order
	Rows    []model.Transaction
}

// ParseFile opens path and parses it with ParseReader.
func ParseFile(path string, opts ParseOptions) (*ParseResult, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the local user
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	res, err := ParseReader(f, opts)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return res, nil
}

// ParseReader reads a comma-separated table with a header row, validates the
// schema, coerces DATE, QUANTITY and UNIT_PRICE and computes the derived
// SALES_VALUE and MONTH_YEAR values for every row.
//
// The first malformed row fails the whole parse; no partial result is returned.
func ParseReader(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	opts = opts.WithDefaults()

	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Reason: "no header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns, idx, err := buildSchema(header)
	if err != nil {
		return nil, err
	}

	res := &ParseResult{Columns: columns}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading rows: %w", err)
		}
		line, _ := cr.FieldPos(0)

		tx, err := parseRow(record, line, idx, opts)
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, tx)
	}

	return res, nil
}

// NormalizeColumnName collapses each run of whitespace into a single
// underscore and trims the edges. Case is preserved and the operation is
// idempotent.
func NormalizeColumnName(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

// buildSchema normalizes the header and locates the required columns.
func buildSchema(header []string) ([]string, map[string]int, error) {
	columns := make([]string, len(header))
	idx := make(map[string]int, len(header))

	var dups []string
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		name := NormalizeColumnName(h)
		columns[i] = name
		if _, seen := idx[name]; seen {
			dups = append(dups, name)
			continue
		}
		idx[name] = i
	}
	if len(dups) > 0 {
		return nil, nil, &SchemaError{Columns: dups, Reason: "duplicate column"}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &SchemaError{Columns: missing, Reason: "missing required column"}
	}

	for _, col := range []string{ColSalesValue, ColMonthYear} {
		if _, ok := idx[col]; ok {
			return nil, nil, &SchemaError{Columns: []string{col}, Reason: "reserved derived column"}
		}
	}

	return columns, idx, nil
}

func parseRow(record []string, line int, idx map[string]int, opts ParseOptions) (model.Transaction, error) {
	dateRaw := record[idx[ColDate]]
	date, ok := ParseDate(dateRaw, opts.DateLayouts)
	if !ok {
		return model.Transaction{}, &MalformedDateError{Line: line, Value: dateRaw}
	}

	priceRaw := record[idx[ColUnitPrice]]
	price, err := ParsePrice(priceRaw)
	if err != nil {
		return model.Transaction{}, &MalformedPriceError{Line: line, Value: priceRaw, Err: err}
	}

	qtyRaw := record[idx[ColQuantity]]
	qty, ok := ParseQuantity(qtyRaw)
	if !ok {
		return model.Transaction{}, &MalformedQuantityError{Line: line, Value: qtyRaw}
	}

	period := MonthStart(date)
	return model.Transaction{
		Line:       line,
		Date:       date,
		Category:   record[idx[ColCategory]],
		Business:   record[idx[ColBusiness]],
		Quantity:   qty,
		UnitPrice:  price,
		SalesValue: decimal.NewFromInt(qty).Mul(price),
		MonthYear:  period.Format(opts.MonthLayout),
		Period:     period,
		Fields:     record,
	}, nil
}

// ParseDate tries each layout in order. The result keeps the wall clock of
// the source text and is expressed in UTC, so offsets in the input never
// move a row into a different month.
func ParseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(),
			t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
	}
	return time.Time{}, false
}

// ParsePrice strips comma thousands separators and parses a decimal amount.
// e.g., "1,234.50" -> 1234.50
func ParsePrice(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return decimal.Decimal{}, errors.New("empty value")
	}
	return decimal.NewFromString(clean)
}

// maxQuantity is the largest quantity that fits the int64 field.
var maxQuantity = decimal.NewFromInt(math.MaxInt64)

// ParseQuantity accepts whole non-negative numbers, including forms like
// "1,200" or "12.0" that a spreadsheet export may produce.
func ParseQuantity(s string) (int64, bool) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(clean)
	if err != nil || d.IsNegative() || !d.IsInteger() || d.GreaterThan(maxQuantity) {
		return 0, false
	}
	return d.IntPart(), true
}

// MonthStart truncates t to the first instant of its calendar month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
