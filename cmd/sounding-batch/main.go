// Command sounding-batch downloads every sounding of one station over an
// inclusive date range and prints a summary of the slots that failed.
//
// Usage:
//
//	sounding-batch STATION START END [--hours "00,12"] [--sep comma|tab] [--outdir PATH]
//	sounding-batch 15420 2025-11-01 2025-11-30 --hours 00,06,12,18
//
// Slots with no published sounding are reported as "unavailable" and do not
// change the exit status.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sounding-etl/internal/cli"
	"github.com/couchcryptid/sounding-etl/internal/config"
	"github.com/couchcryptid/sounding-etl/internal/observability"
	"github.com/couchcryptid/sounding-etl/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	parsed, err := cli.ParseBatch(args, cfg, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "sounding-batch:", err)
		return 1
	}
	cfg.OutputDir = parsed.OutputDir
	cfg.Separator = parsed.Separator

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	fetcher, cleanup, err := cli.NewFetcher(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to initialise sinks", "error", err)
		return 1
	}
	defer cleanup()
	defer cli.WriteMetrics(cfg, metrics, logger)

	batch := pipeline.NewBatch(fetcher, clockwork.NewRealClock(), cfg.RequestInterval, logger, metrics)
	report, err := batch.Run(ctx, parsed.Plan)
	if err != nil {
		logger.Error("invalid batch", "error", err)
		return 1
	}

	if err := report.WriteSummary(stdout); err != nil {
		logger.Error("failed to write summary", "error", err)
		return 1
	}
	return 0
}
