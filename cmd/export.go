package cmd

import (
	"errors"
	"strings"

	"github.com/theirongolddev/salesdash/internal/export"
	"github.com/theirongolddev/salesdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagExportBy     string
	flagExportFormat string
	flagExportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write filtered rows or an aggregate to CSV or XLSX",
	Example: "  salesdash export --by month --out monthly.xlsx\n" +
		"  salesdash export --by month,category --format csv\n" +
		"  salesdash export --category A --out rows.csv",
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&flagExportBy, "by", "", "Group by one or two columns, comma separated (default: raw rows)")
	exportCmd.Flags().StringVar(&flagExportFormat, "format", "", "csv or xlsx (default: from --out extension, else csv)")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	_, ds, err := loadData()
	if err != nil {
		return err
	}

	format := export.FormatFromPath(flagExportOut)
	if flagExportFormat != "" {
		if format, err = export.ParseFormat(flagExportFormat); err != nil {
			return err
		}
	}
	if flagExportOut == "" && format == export.FormatXLSX {
		return errors.New("xlsx export needs --out")
	}

	table, sheet, err := exportTable(ds, flagExportBy)
	if err != nil {
		return err
	}

	if flagExportOut == "" {
		return export.Write(cmd.OutOrStdout(), format, table, sheet)
	}
	if err := export.WriteFile(flagExportOut, format, table, sheet); err != nil {
		return err
	}
	logger.Info("exported", "rows", len(table.Rows), "format", format, "path", flagExportOut)
	return nil
}

// exportTable builds the raw rows table for an empty by, or the aggregate
// over the comma separated by columns.
func exportTable(ds *pipeline.Dataset, by string) (export.Table, string, error) {
	if strings.TrimSpace(by) == "" {
		return export.FromDataset(ds), "Data", nil
	}

	var cols []string
	for _, c := range strings.Split(by, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	view, err := pipeline.Aggregate(ds, cols...)
	if err != nil {
		return export.Table{}, "", err
	}
	return export.FromView(view), "Aggregate", nil
}
