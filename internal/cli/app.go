package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/sounding-etl/internal/adapter/filestore"
	kafkaadapter "github.com/couchcryptid/sounding-etl/internal/adapter/kafka"
	"github.com/couchcryptid/sounding-etl/internal/adapter/s3store"
	"github.com/couchcryptid/sounding-etl/internal/adapter/uwyo"
	"github.com/couchcryptid/sounding-etl/internal/config"
	"github.com/couchcryptid/sounding-etl/internal/domain"
	"github.com/couchcryptid/sounding-etl/internal/observability"
	"github.com/couchcryptid/sounding-etl/internal/pipeline"
)

// NewFetcher builds the archive client, the file store, and any configured
// sinks into a Fetcher. The returned cleanup closes the sinks and must be
// called once the run is over.
func NewFetcher(ctx context.Context, cfg *config.Config, logger *slog.Logger,
	metrics *observability.Metrics,
) (*pipeline.Fetcher, func(), error) {
	var (
		publishers []pipeline.Publisher
		closers    []func() error
	)

	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		publishers = append(publishers, writer)
		closers = append(closers, writer.Close)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if cfg.S3Enabled() {
		uploader, err := s3store.NewUploader(ctx, cfg, logger)
		if err != nil {
			closeAll(closers, logger)
			return nil, nil, fmt.Errorf("s3 uploader: %w", err)
		}
		publishers = append(publishers, uploader)
		logger.Info("s3 upload enabled", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
	}

	fetcher := pipeline.NewFetcher(
		uwyo.NewClient(cfg, logger),
		domain.NewExtractor(domain.DefaultLayout()),
		filestore.New(cfg.OutputDir, logger),
		cfg.Separator,
		logger,
		metrics,
		publishers...,
	)
	return fetcher, func() { closeAll(closers, logger) }, nil
}

func closeAll(closers []func() error, logger *slog.Logger) {
	for _, c := range closers {
		if err := c(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}
}

// WriteMetrics exports the registry to cfg.MetricsFile when one is set.
func WriteMetrics(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Error("failed to write metrics file", "path", cfg.MetricsFile, "error", err)
	}
}
