package cmd

import (
	"fmt"
	"io"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Business segmentation by share of sales",
	Long: "Rank businesses by total sales value. High Value businesses make up the\n" +
		"first 50% of sales, Medium Value the next 30%, Low Value the rest.",
	RunE: runSegments,
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
}

func runSegments(cmd *cobra.Command, _ []string) error {
	_, ds, err := loadData()
	if err != nil {
		return err
	}
	return writeSegments(cmd.OutOrStdout(), ds)
}

func writeSegments(w io.Writer, ds *pipeline.Dataset) error {
	segs := pipeline.SegmentBusinesses(ds)
	if ds.Len() == 0 {
		fmt.Fprintln(w, "\n  No transactions match the current filters.")
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.RenderTitle("BUSINESS SEGMENTS  "+filterLabel()))
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(segs))
	bars := make([]cli.Bar, 0, len(segs))
	for _, s := range segs {
		rows = append(rows, []string{
			s.Segment,
			cli.FormatNumber(int64(s.Businesses)),
			cli.FormatMoney(s.SalesValue),
			cli.FormatPercent(s.SharePercent),
		})
		bars = append(bars, cli.Bar{
			Label: s.Segment,
			Value: s.SharePercent,
			Text:  cli.FormatPercent(s.SharePercent),
		})
	}

	fmt.Fprint(w, cli.RenderTable(cli.Table{
		Headers: []string{"Segment", "Businesses", "Sales Value", "Share"},
		Rows:    rows,
	}))
	fmt.Fprintln(w)
	fmt.Fprint(w, cli.RenderBars(bars, 14, 36))
	return nil
}
