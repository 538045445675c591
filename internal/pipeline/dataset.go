package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/source"
)

// columnAliases map the short names used by the dashboards and the CLI to
// canonical column names.
var columnAliases = map[string]string{
	"category":   source.ColCategory,
	"business":   source.ColBusiness,
	"month":      source.ColMonthYear,
	"month_year": source.ColMonthYear,
}

// Dataset is the enriched, immutable table produced by Load.
// Nothing mutates a Dataset after construction; accessors return copies.
type Dataset struct {
	sourceCols []string
	columns    []string
	index      map[string]int
	rows       []model.Transaction
}

func newDataset(sourceCols []string, rows []model.Transaction) *Dataset {
	cols := make([]string, 0, len(sourceCols)+2)
	cols = append(cols, sourceCols...)
	cols = append(cols, source.ColSalesValue, source.ColMonthYear)

	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}

	return &Dataset{
		sourceCols: sourceCols,
		columns:    cols,
		index:      idx,
		rows:       rows,
	}
}

// Columns returns the source columns in file order followed by the derived
// SALES_VALUE and MONTH_YEAR columns.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// SourceColumns returns only the columns read from the source file.
func (d *Dataset) SourceColumns() []string {
	out := make([]string, len(d.sourceCols))
	copy(out, d.sourceCols)
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Row returns a copy of the i-th row.
func (d *Dataset) Row(i int) model.Transaction {
	return d.rows[i].Clone()
}

// Rows returns a copy of every row in source order.
func (d *Dataset) Rows() []model.Transaction {
	out := make([]model.Transaction, len(d.rows))
	for i := range d.rows {
		out[i] = d.rows[i].Clone()
	}
	return out
}

// HasColumn reports whether name resolves to a column of the dataset.
func (d *Dataset) HasColumn(name string) bool {
	_, err := d.ResolveColumn(name)
	return err == nil
}

// ResolveColumn maps a user-supplied name to a dataset column. Exact names
// win, then the short aliases, then the whitespace-normalized form compared
// without regard to case.
func (d *Dataset) ResolveColumn(name string) (string, error) {
	if _, ok := d.index[name]; ok {
		return name, nil
	}

	norm := source.NormalizeColumnName(name)
	if canon, ok := columnAliases[strings.ToLower(norm)]; ok {
		if _, present := d.index[canon]; present {
			return canon, nil
		}
	}
	for _, c := range d.columns {
		if strings.EqualFold(c, norm) {
			return c, nil
		}
	}

	return "", &source.SchemaError{Columns: []string{name}, Reason: "unknown column"}
}

// Value returns the canonical text of a cell. Typed columns render in a
// fixed form (dates as 2006-01-02, amounts as plain decimals), labels and
// pass-through columns are returned exactly as read.
func (d *Dataset) Value(i int, column string) (string, error) {
	col, err := d.ResolveColumn(column)
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(d.rows) {
		return "", fmt.Errorf("row %d out of range [0,%d)", i, len(d.rows))
	}
	return cellValue(&d.rows[i], col, d.index[col]), nil
}

// Record returns the i-th row as text, aligned with Columns.
func (d *Dataset) Record(i int) []string {
	tx := &d.rows[i]
	out := make([]string, len(d.columns))
	for j, c := range d.columns {
		out[j] = cellValue(tx, c, j)
	}
	return out
}

// cellValue renders column col of tx; pos is the column position.
func cellValue(tx *model.Transaction, col string, pos int) string {
	switch col {
	case source.ColDate:
		return FormatDate(tx.Date)
	case source.ColCategory:
		return tx.Category
	case source.ColBusiness:
		return tx.Business
	case source.ColQuantity:
		return strconv.FormatInt(tx.Quantity, 10)
	case source.ColUnitPrice:
		return tx.UnitPrice.String()
	case source.ColSalesValue:
		return tx.SalesValue.String()
	case source.ColMonthYear:
		return tx.MonthYear
	}
	if pos < len(tx.Fields) {
		return tx.Fields[pos]
	}
	return ""
}

// FormatDate renders a parsed DATE value, adding the clock only when the
// source carried one.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}
