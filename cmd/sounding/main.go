// Command sounding downloads one radiosonde sounding from the University of
// Wyoming archive and writes it as a delimited text file.
//
// Usage:
//
//	sounding STATION DATE TIME [--sep comma|tab] [--outdir PATH]
//	sounding 15420 2025-11-02 00
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

	"github.com/couchcryptid/sounding-etl/internal/cli"
	"github.com/couchcryptid/sounding-etl/internal/config"
	"github.com/couchcryptid/sounding-etl/internal/domain"
	"github.com/couchcryptid/sounding-etl/internal/observability"
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

	parsed, err := cli.ParseSingle(args, cfg, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "sounding:", err)
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

	req := parsed.Request
	logger.Info("requesting sounding", "station_id", req.StationID, "time", cli.FormatTime(req.Time))

	res, err := fetcher.Fetch(ctx, req)
	if err != nil {
		logger.Error("sounding failed", "key", req.Key(), "kind", domain.Classify(err), "error", err)
		return 1
	}

	fmt.Fprintf(stdout, "Saved %s (%s, %s, %d levels)\n",
		res.Path, res.StationName, cli.FormatTime(req.Time), res.Levels)
	return 0
}
