package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sounding-etl/internal/domain"
	"github.com/couchcryptid/sounding-etl/internal/observability"
)

// SoundingFetcher fetches and writes one report. *Fetcher implements it.
type SoundingFetcher interface {
	Fetch(ctx context.Context, req domain.Request) (Result, error)
}

// Plan describes a batch: one station, an inclusive date range, and the
// hours to request on every day.
type Plan struct {
	StationID string
	Start     time.Time
	End       time.Time
	Hours     []int
}

// Requests enumerates every (date, hour) slot in calendar order, hours in
// the order given. An invalid station id, a reversed range, or a bad hour
// list returns an error wrapping domain.ErrInvalidInput.
func (p Plan) Requests() ([]domain.Request, error) {
	if len(p.Hours) == 0 {
		return nil, fmt.Errorf("%w: no hours to request", domain.ErrInvalidInput)
	}
	for _, h := range p.Hours {
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("%w: hour %d out of range", domain.ErrInvalidInput, h)
		}
	}
	days, err := domain.DateRange(p.Start, p.End)
	if err != nil {
		return nil, err
	}

	reqs := make([]domain.Request, 0, len(days)*len(p.Hours))
	for _, day := range days {
		for _, hour := range p.Hours {
			req, err := domain.NewRequest(p.StationID, day.Add(time.Duration(hour)*time.Hour))
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

// Batch drives a Fetcher over a Plan, one request at a time.
type Batch struct {
	fetcher  SoundingFetcher
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewBatch creates a Batch. interval is the pause between consecutive
// requests; zero disables it.
func NewBatch(fetcher SoundingFetcher, clock clockwork.Clock, interval time.Duration,
	logger *slog.Logger, metrics *observability.Metrics,
) *Batch {
	return &Batch{
		fetcher:  fetcher,
		clock:    clock,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run requests every slot of the plan in order. Per-slot failures are
// recorded in the report and never stop the run; only an invalid plan
// returns an error. Cancelling ctx stops before the next slot and returns
// the partial report marked Cancelled, even when the last slot was the one
// interrupted.
func (b *Batch) Run(ctx context.Context, plan Plan) (*Report, error) {
	reqs, err := plan.Requests()
	if err != nil {
		return nil, err
	}

	b.metrics.BatchRunning.Set(1)
	defer b.metrics.BatchRunning.Set(0)

	started := b.clock.Now()
	report := &Report{Planned: len(reqs)}
	b.logger.Info("batch started",
		"station_id", plan.StationID,
		"start", plan.Start.Format(time.DateOnly),
		"end", plan.End.Format(time.DateOnly),
		"hours", plan.Hours,
		"requests", len(reqs),
	)

	for i, req := range reqs {
		if i > 0 && !b.pause(ctx) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		b.logger.Info("requesting sounding", "station_id", req.StationID, "time", req.Time.Format("2006-01-02 15:04"))
		res, err := b.fetcher.Fetch(ctx, req)
		outcome := Outcome{Request: req, Kind: domain.Classify(err), Err: err}
		if err != nil {
			b.logFailure(outcome)
		} else {
			outcome.Path = res.Path
			outcome.Levels = res.Levels
			b.logger.Info("saved sounding", "path", res.Path, "levels", res.Levels)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	report.Cancelled = ctx.Err() != nil
	report.Duration = b.clock.Since(started)
	b.metrics.LastRunTime.Set(float64(b.clock.Now().Unix()))

	b.logger.Info("batch finished",
		"succeeded", report.Succeeded(),
		"failed", len(report.Failures()),
		"cancelled", report.Cancelled,
		"duration", report.Duration,
	)
	return report, nil
}

func (b *Batch) logFailure(o Outcome) {
	if o.Kind == domain.KindUnavailable {
		b.logger.Warn("sounding unavailable", "key", o.Request.Key(), "reason", o.Err)
		return
	}
	b.logger.Error("sounding failed", "key", o.Request.Key(), "error", o.Err)
}

// pause waits for the configured interval. Returns false if ctx was
// cancelled while waiting.
func (b *Batch) pause(ctx context.Context) bool {
	if b.interval <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-b.clock.After(b.interval):
		return true
	}
}
