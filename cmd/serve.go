package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/salesdash/internal/apiclient"
	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/daemon"

	"github.com/spf13/cobra"
)

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dataset over a JSON HTTP API, reloading on change",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running server's status",
	RunE:  runServeStatus,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().DurationVar(&flagServeInterval, "interval", 0, "Polling interval (default from config)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	if flagServeAddr != "" {
		return flagServeAddr
	}
	return cfg.Serve.Addr
}

func runServe(_ *cobra.Command, _ []string) error {
	path, err := resolveDataFile()
	if err != nil {
		return err
	}
	opts, err := config.ParseOptions(cfg)
	if err != nil {
		return err
	}

	interval := flagServeInterval
	if interval == 0 {
		interval = time.Duration(cfg.Serve.IntervalSec) * time.Second
	}

	svc := daemon.New(daemon.Config{
		DataFile:     path,
		ParseOptions: opts,
		Filters:      flagFilters(),
		UseCache:     !flagNoCache,
		Interval:     interval,
		Addr:         serveAddr(),
		EventsBuffer: flagServeEventsBuffer,
		Logger:       logger,
	})

	logger.Info("serving", "file", path, "url", "http://"+serveAddr(), "interval", interval)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(cmd *cobra.Command, _ []string) error {
	client := apiclient.NewClient(serveAddr())
	if client == nil {
		return errors.New("no server address: pass --addr or set serve.addr")
	}
	w := cmd.OutOrStdout()

	ov := client.FetchAll(cmd.Context(), flagFilters())
	if ov.Status == nil {
		fmt.Fprintf(w, "  Server: unreachable at %s (%v)\n", client.BaseURL(), ov.Error)
		return nil
	}
	writeServeStatus(w, client.BaseURL(), ov)
	return nil
}

func writeServeStatus(w io.Writer, base string, ov *apiclient.Overview) {
	st := ov.Status
	fmt.Fprintf(w, "  Address:    %s\n", base)
	fmt.Fprintf(w, "  Data file:  %s\n", st.DataFile)
	fmt.Fprintf(w, "  Started:    %s\n", st.StartedAt.Local().Format(time.RFC3339))
	if st.LastLoadAt.IsZero() {
		fmt.Fprintf(w, "  Last load:  pending\n")
	} else {
		fmt.Fprintf(w, "  Last load:  %s\n", st.LastLoadAt.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "  Polls:      %d (%d loads)\n", st.PollCount, st.LoadCount)
	if st.LastError != "" {
		fmt.Fprintf(w, "  Last error: %s\n", st.LastError)
	}

	if sum := ov.Summary; sum != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Rows:       %s (%s)\n", cli.FormatNumber(int64(sum.Rows)), filterLabel())
		fmt.Fprintf(w, "  Quantity:   %s\n", cli.FormatNumber(sum.Quantity))
		fmt.Fprintf(w, "  Sales:      %s\n", cli.FormatMoney(sum.SalesValue))
		if sum.PreviousMonth != "" {
			fmt.Fprintf(w, "  %s:    %+.1f%% vs %s\n", sum.LatestMonth, sum.ChangePercent, sum.PreviousMonth)
		}
	}
	for _, seg := range ov.Segments {
		fmt.Fprintf(w, "  %-12s %s businesses, %s\n",
			seg.Segment, cli.FormatNumber(int64(seg.Businesses)), cli.FormatPercent(seg.SharePercent))
	}
	if ov.Error != nil && ov.Summary == nil {
		fmt.Fprintf(w, "  Summary:    %v\n", ov.Error)
	}
}
