package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/sounding-etl/internal/domain"
	"github.com/couchcryptid/sounding-etl/internal/observability"
)

// Source retrieves the raw archive page for one request.
type Source interface {
	Fetch(ctx context.Context, req domain.Request) (string, error)
}

// Store persists a rendered sounding and returns where it was written.
type Store interface {
	Save(ctx context.Context, s domain.Sounding, content []byte) (string, error)
}

// Publisher forwards a saved sounding to an optional secondary sink.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, s domain.Sounding, content []byte) error
}

// Result is what one successful request produces.
type Result struct {
	Path        string
	StationName string
	Pressure    []float64 // hPa
	Height      []float64 // m
	Temperature []float64 // C
	Levels      int
}

// Fetcher runs the extract-transform-load steps for a single report:
// download, extract the table, render it, write the file, then publish.
type Fetcher struct {
	source     Source
	extractor  *domain.Extractor
	store      Store
	publishers []Publisher
	sep        domain.Separator
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewFetcher creates a Fetcher. Publishers are optional.
func NewFetcher(source Source, extractor *domain.Extractor, store Store, sep domain.Separator,
	logger *slog.Logger, metrics *observability.Metrics, publishers ...Publisher,
) *Fetcher {
	return &Fetcher{
		source:     source,
		extractor:  extractor,
		store:      store,
		publishers: publishers,
		sep:        sep,
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch downloads and writes one sounding. Errors keep their classification:
// domain.ErrUnavailable when the slot has no sounding, domain.ErrTransport or
// *domain.StatusError for archive failures, domain.ErrWrite for disk failures.
// Publisher failures are logged and counted but do not fail the request.
func (f *Fetcher) Fetch(ctx context.Context, req domain.Request) (Result, error) {
	res, err := f.fetch(ctx, req)
	f.metrics.Requests.WithLabelValues(string(domain.Classify(err))).Inc()
	return res, err
}

func (f *Fetcher) fetch(ctx context.Context, req domain.Request) (Result, error) {
	start := time.Now()
	page, err := f.source.Fetch(ctx, req)
	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", req.Key(), err)
	}

	sounding, err := f.extractor.Extract(page, req)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", req.Key(), err)
	}
	if sounding.StationName == "" {
		f.logger.Warn("station name not found, using station id as folder name",
			"station_id", req.StationID)
	}
	if sounding.DroppedRows > 0 {
		f.logger.Debug("dropped table rows with unexpected field count",
			"key", req.Key(), "dropped", sounding.DroppedRows)
		f.metrics.RowsDropped.Add(float64(sounding.DroppedRows))
	}

	content := domain.Render(sounding, f.sep)
	path, err := f.store.Save(ctx, sounding, content)
	if err != nil {
		return Result{}, fmt.Errorf("save %s: %w", req.Key(), err)
	}
	f.metrics.Levels.Observe(float64(len(sounding.Rows)))

	f.publish(ctx, sounding, content)

	profiles := sounding.Profiles()
	return Result{
		Path:        path,
		StationName: sounding.FolderName(),
		Pressure:    profiles.Pressure,
		Height:      profiles.Height,
		Temperature: profiles.Temperature,
		Levels:      len(sounding.Rows),
	}, nil
}

func (f *Fetcher) publish(ctx context.Context, s domain.Sounding, content []byte) {
	for _, p := range f.publishers {
		if err := p.Publish(ctx, s, content); err != nil {
			f.logger.Warn("publish failed", "sink", p.Name(), "key", s.Request.Key(), "error", err)
			f.metrics.PublishErrors.WithLabelValues(p.Name()).Inc()
		}
	}
}
