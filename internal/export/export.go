// Package export writes aggregate views and datasets to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"
)

// Format is an output file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or xlsx)", s)
}

// FormatFromPath infers the format from a file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Table is a header plus text rows. Numeric marks the columns that hold
// numbers, so spreadsheets get numeric cells instead of text.
type Table struct {
	Header  []string
	Rows    [][]string
	Numeric map[int]bool
}

// FromView converts an aggregate view; the two total columns are numeric.
func FromView(v *pipeline.AggregateView) Table {
	recs := v.Records()
	n := len(v.GroupBy)
	return Table{
		Header:  recs[0],
		Rows:    recs[1:],
		Numeric: map[int]bool{n: true, n + 1: true},
	}
}

// FromDataset converts every row of ds, derived columns included.
func FromDataset(ds *pipeline.Dataset) Table {
	cols := ds.Columns()
	t := Table{
		Header:  cols,
		Rows:    make([][]string, ds.Len()),
		Numeric: make(map[int]bool),
	}
	for i, c := range cols {
		switch c {
		case source.ColQuantity, source.ColUnitPrice, source.ColSalesValue:
			t.Numeric[i] = true
		}
	}
	for i := 0; i < ds.Len(); i++ {
		t.Rows[i] = ds.Record(i)
	}
	return t
}

// Write encodes t to w in the given format.
func Write(w io.Writer, f Format, t Table, sheet string) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t, sheet)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteFile writes t to path, creating parent directories.
func WriteFile(path string, f Format, t Table, sheet string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	out, err := os.Create(path) //nolint:gosec // output path is chosen by the local user
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(out, f, t, sheet); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

// WriteCSV writes t as comma-separated text, header first. Cells and
// header names are written exactly as given.
func WriteCSV(w io.Writer, t Table) error {
	// The frame renames empty and repeated names, so the header is written
	// here and the frame only carries the body under positional names.
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if len(t.Rows) == 0 {
		return nil
	}

	names := make([]string, len(t.Header))
	for i := range names {
		names[i] = fmt.Sprintf("c%d", i)
	}
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, names)
	records = append(records, t.Rows...)

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
	)
	if df.Err != nil {
		return fmt.Errorf("building frame: %w", df.Err)
	}
	return df.WriteCSV(w, dataframe.WriteHeader(false))
}

// WriteXLSX writes t as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, t Table, sheet string) error {
	if sheet == "" {
		sheet = "Sales"
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if len(t.Header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for c, v := range row {
			cells[c] = v
			if t.Numeric[c] {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					cells[c] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", r+1, err)
		}
	}

	return f.Write(w)
}
