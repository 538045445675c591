package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"
)

const csvInput = `DATE,ANONYMIZED CATEGORY,ANONYMIZED BUSINESS,QUANTITY,UNIT PRICE
2024-03-01,A,Business-1,3,10
2024-03-09,A,Business-2,7,20
2024-04-02,,Business-1,1,"1,000.25"
`

func loadView(t *testing.T, groupBy ...string) (*pipeline.Dataset, *pipeline.AggregateView) {
	t.Helper()
	ds, err := pipeline.LoadReader(strings.NewReader(csvInput), source.DefaultParseOptions())
	require.NoError(t, err)
	view, err := pipeline.Aggregate(ds, groupBy...)
	require.NoError(t, err)
	return ds, view
}

func TestWriteCSV_View(t *testing.T) {
	_, view := loadView(t, "month", "category")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromView(view)))

	assert.Equal(t, strings.Join([]string{
		"MONTH_YEAR,ANONYMIZED_CATEGORY,TOTAL_QUANTITY,TOTAL_SALES_VALUE",
		"2024-03,A,10,170",
		"2024-04,,1,1000.25",
	}, "\n")+"\n", buf.String())
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	ds, _ := loadView(t, "category")
	empty, err := pipeline.Filter(ds, map[string]string{"category": "Z"})
	require.NoError(t, err)
	view, err := pipeline.Aggregate(empty, "category")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromView(view)))
	assert.Equal(t, "ANONYMIZED_CATEGORY,TOTAL_QUANTITY,TOTAL_SALES_VALUE\n", buf.String())
}

func TestWriteCSV_Dataset(t *testing.T) {
	ds, _ := loadView(t, "category")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromDataset(ds)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "DATE,ANONYMIZED_CATEGORY,ANONYMIZED_BUSINESS,QUANTITY,UNIT_PRICE,SALES_VALUE,MONTH_YEAR", lines[0])
	assert.Equal(t, "2024-04-02,,Business-1,1,1000.25,1000.25,2024-04", lines[3])
}

func TestWriteCSV_KeepsUnnamedColumn(t *testing.T) {
	const indexed = `,DATE,ANONYMIZED CATEGORY,ANONYMIZED BUSINESS,QUANTITY,UNIT PRICE
0,2024-03-01,A,Business-1,3,10
1,2024-03-09,A,Business-2,7,20
`
	ds, err := pipeline.LoadReader(strings.NewReader(indexed), source.DefaultParseOptions())
	require.NoError(t, err)
	require.Equal(t, "", ds.Columns()[0])

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromDataset(ds)))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, ds.Columns(), recs[0])
	assert.Equal(t, "0", recs[1][0])
	assert.Equal(t, "1", recs[2][0])
}

func TestWriteXLSX_View(t *testing.T) {
	_, view := loadView(t, "month")

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, FromView(view), "Monthly"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Monthly"}, f.GetSheetList())

	rows, err := f.GetRows("Monthly")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"MONTH_YEAR", "TOTAL_QUANTITY", "TOTAL_SALES_VALUE"}, rows[0])
	assert.Equal(t, "2024-03", rows[1][0])
	assert.Equal(t, "170", rows[1][2])

	typ, err := f.GetCellType("Monthly", "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)
}

func TestWriteFile_InfersFormat(t *testing.T) {
	_, view := loadView(t, "business")
	dir := t.TempDir()

	path := filepath.Join(dir, "out", "business.xlsx")
	require.Equal(t, FormatXLSX, FormatFromPath(path))
	require.NoError(t, WriteFile(path, FormatFromPath(path), FromView(view), ""))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"Sales"}, f.GetSheetList())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("json")
	assert.Error(t, err)
	assert.Equal(t, FormatCSV, FormatFromPath("x.csv"))
}
