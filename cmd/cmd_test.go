package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/salesdash/internal/apiclient"
	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/daemon"
	"github.com/theirongolddev/salesdash/internal/export"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"
)

const salesCSV = `DATE,ANONYMIZED CATEGORY,ANONYMIZED BUSINESS,QUANTITY,UNIT PRICE
2024-03-01,A,Business-1,3,10
2024-03-09,A,Business-2,7,20
2024-04-02,B,Business-1,2,"1,000"
`

func loadTestDataset(t *testing.T) *pipeline.Dataset {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
	ds, err := pipeline.LoadReader(strings.NewReader(salesCSV), source.DefaultParseOptions())
	require.NoError(t, err)
	return ds
}

// resetFlags clears the persistent flag globals for the duration of a test.
func resetFlags(t *testing.T) {
	t.Helper()
	saved := []string{flagFile, flagCategory, flagBusiness, flagMonth, flagMonthFormat}
	savedCfg := cfg
	flagFile, flagCategory, flagBusiness, flagMonth, flagMonthFormat = "", "", "", "", ""
	cfg = config.DefaultConfig()
	t.Cleanup(func() {
		flagFile, flagCategory, flagBusiness, flagMonth, flagMonthFormat = saved[0], saved[1], saved[2], saved[3], saved[4]
		cfg = savedCfg
	})
}

func TestFlagFilters(t *testing.T) {
	resetFlags(t)
	assert.Empty(t, flagFilters())
	assert.Equal(t, "all data", filterLabel())

	flagCategory = "A"
	flagMonth = "2024-03"
	assert.Equal(t, map[string]string{
		source.ColCategory:  "A",
		source.ColMonthYear: "2024-03",
	}, flagFilters())
	assert.Equal(t, "category=A, month=2024-03", filterLabel())
}

func TestResolveDataFile(t *testing.T) {
	resetFlags(t)
	t.Chdir(t.TempDir())

	_, err := resolveDataFile()
	require.Error(t, err)

	require.NoError(t, os.WriteFile("clean_case_study_data.csv", []byte(salesCSV), 0o600))
	got, err := resolveDataFile()
	require.NoError(t, err)
	assert.Equal(t, "clean_case_study_data.csv", filepath.Base(got))

	cfg.General.DataFile = "/from/config.csv"
	got, _ = resolveDataFile()
	assert.Equal(t, "/from/config.csv", got)

	flagFile = "/from/flag.csv"
	got, _ = resolveDataFile()
	assert.Equal(t, "/from/flag.csv", got)
}

func TestLoadData_AppliesFlagFilters(t *testing.T) {
	resetFlags(t)
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o600))
	flagFile = path
	flagBusiness = "Business-1"

	result, ds, err := loadData()
	require.NoError(t, err)
	assert.Equal(t, 3, result.Dataset.Len())
	assert.Equal(t, 2, ds.Len())

	cfg.Parse.MonthFormat = "bogus"
	_, _, err = loadData()
	assert.Error(t, err)
}

func TestWriteSummary(t *testing.T) {
	resetFlags(t)
	ds := loadTestDataset(t)

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, ds))
	out := buf.String()

	assert.Contains(t, out, "SALES SUMMARY")
	assert.Contains(t, out, "2,170.00")
	assert.Contains(t, out, "Latest (2024-04)")
	assert.Contains(t, out, "+1,830.00")
	assert.Contains(t, out, "Sales trend")
}

func TestWriteSummary_NoRows(t *testing.T) {
	resetFlags(t)
	ds := loadTestDataset(t)
	empty, err := pipeline.Filter(ds, map[string]string{source.ColCategory: "Z"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, empty))
	assert.Contains(t, buf.String(), "No transactions match")
}

func TestWriteMonthly(t *testing.T) {
	resetFlags(t)
	ds := loadTestDataset(t)

	var buf bytes.Buffer
	require.NoError(t, writeMonthly(&buf, ds))
	out := buf.String()

	march := strings.Index(out, "2024-03")
	april := strings.Index(out, "2024-04")
	require.NotEqual(t, -1, march)
	require.NotEqual(t, -1, april)
	assert.Less(t, march, april, "months are chronological")
	assert.Contains(t, out, "+1076.5%")
}

func TestWriteDimension(t *testing.T) {
	resetFlags(t)
	ds := loadTestDataset(t)

	var buf bytes.Buffer
	require.NoError(t, writeDimension(&buf, ds, "Business", source.ColBusiness, 1))
	out := buf.String()

	assert.Contains(t, out, "SALES BY BUSINESS")
	assert.Contains(t, out, "Business-1")
	assert.NotContains(t, out, "Business-2")
	assert.Contains(t, out, "93.5%")
	assert.Contains(t, out, "Showing top 1 of 2")
}

func TestWriteBreakdown(t *testing.T) {
	resetFlags(t)
	ds := loadTestDataset(t)

	var buf bytes.Buffer
	require.NoError(t, writeBreakdown(&buf, ds, ""))
	assert.Contains(t, buf.String(), "CATEGORY BREAKDOWN  2024-04")
	assert.Contains(t, buf.String(), "2,000.00")

	buf.Reset()
	require.NoError(t, writeBreakdown(&buf, ds, "2024-03"))
	assert.Contains(t, buf.String(), "170.00")

	buf.Reset()
	require.NoError(t, writeBreakdown(&buf, ds, "2099-01"))
	assert.Contains(t, buf.String(), "No transactions in 2099-01")
}

func TestWriteBreakdown_NoRows(t *testing.T) {
	resetFlags(t)
	ds := loadTestDataset(t)
	empty, err := pipeline.Filter(ds, map[string]string{source.ColCategory: "Z"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeBreakdown(&buf, empty, ""))
	assert.Contains(t, buf.String(), "No transactions match the current filters.")
	assert.NotContains(t, buf.String(), "(missing)")
}

func TestWriteSegments(t *testing.T) {
	resetFlags(t)
	ds := loadTestDataset(t)

	var buf bytes.Buffer
	require.NoError(t, writeSegments(&buf, ds))
	out := buf.String()

	for _, seg := range []string{pipeline.SegmentHigh, pipeline.SegmentMedium, pipeline.SegmentLow} {
		assert.Contains(t, out, seg)
	}
	assert.Contains(t, out, "2,030.00")
}

func TestWriteValues(t *testing.T) {
	ds := loadTestDataset(t)

	var buf bytes.Buffer
	require.NoError(t, writeValues(&buf, ds, "business"))
	assert.Equal(t, "Business-1\nBusiness-2\n", buf.String())

	assert.Error(t, writeValues(&buf, ds, "NOPE"))
}

func TestExportTable(t *testing.T) {
	ds := loadTestDataset(t)

	table, sheet, err := exportTable(ds, "month, category")
	require.NoError(t, err)
	assert.Equal(t, "Aggregate", sheet)

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, export.FormatCSV, table, sheet))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{source.ColMonthYear, source.ColCategory, pipeline.ColTotalQuantity, pipeline.ColTotalSalesValue}, recs[0])

	table, sheet, err = exportTable(ds, "")
	require.NoError(t, err)
	assert.Equal(t, "Data", sheet)
	assert.Len(t, table.Rows, 3)

	_, _, err = exportTable(ds, "month,category,business")
	assert.ErrorIs(t, err, pipeline.ErrGroupKeys)
}

func TestWriteConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	c := config.DefaultConfig()
	c.General.DataFile = "/data/sales.csv"

	var buf bytes.Buffer
	writeConfig(&buf, c)
	out := buf.String()
	assert.Contains(t, out, "using defaults")
	assert.Contains(t, out, "/data/sales.csv")
	assert.Contains(t, out, "iso (2006-01)")
	assert.Contains(t, out, config.EnvDataFile)
}

func TestCheckDataFile(t *testing.T) {
	assert.Error(t, checkDataFile(" "))
	assert.Error(t, checkDataFile(t.TempDir()))

	path := filepath.Join(t.TempDir(), "ok.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o600))
	assert.NoError(t, checkDataFile(path))
}

func TestWriteServeStatus(t *testing.T) {
	resetFlags(t)
	svc := daemon.New(daemon.Config{DataFile: "sales.csv"})
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	client := apiclient.NewClient(srv.URL)
	ov := client.FetchAll(context.Background(), nil)

	var buf bytes.Buffer
	writeServeStatus(&buf, client.BaseURL(), ov)
	out := buf.String()
	assert.Contains(t, out, "Data file:  sales.csv")
	assert.Contains(t, out, "Last load:  pending")
	assert.Contains(t, out, "not loaded")
}
