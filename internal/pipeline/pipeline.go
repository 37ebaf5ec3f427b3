package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/rainfall-etl/internal/domain"
	"github.com/couchcryptid/rainfall-etl/internal/observability"
)

// RecordSource reads the raw rainfall records.
type RecordSource interface {
	ReadRecords(ctx context.Context) ([]domain.Record, error)
}

// DatasetSink persists or publishes a built Dataset.
type DatasetSink interface {
	Name() string
	Store(ctx context.Context, r domain.YearRange, ds domain.Dataset) error
}

// Pipeline orchestrates the extract-reshape-load run.
type Pipeline struct {
	source  RecordSource
	sinks   []DatasetSink
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool

	attempts       int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// New creates a Pipeline. Sinks are written in the order given. Each sink
// write is attempted up to three times, backing off from 200ms to at most 5s.
func New(source RecordSource, sinks []DatasetSink, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:         source,
		sinks:          sinks,
		logger:         logger,
		metrics:        metrics,
		attempts:       3,
		initialBackoff: 200 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	}
}

// SetRetry overrides the sink retry policy. attempts below 1 are treated as 1.
func (p *Pipeline) SetRetry(attempts int, initial, maxBackoff time.Duration) {
	p.attempts = max(attempts, 1)
	p.initialBackoff = initial
	p.maxBackoff = maxBackoff
}

// CheckReadiness returns nil once a Dataset has been built and stored, or an
// error describing why the pipeline is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not built a dataset yet")
	}
	return nil
}

// Run reads every record, reshapes them into a Dataset covering r, and hands
// the Dataset to each sink in turn. The first failure aborts the run; sinks
// after the failing one are not called.
func (p *Pipeline) Run(ctx context.Context, r domain.YearRange) (domain.Dataset, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	clock := domain.Clock()
	start := clock.Now()

	records, err := p.source.ReadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract records: %w", err)
	}
	p.metrics.RecordsRead.Add(float64(len(records)))

	ds := domain.BuildDataset(records, r.Start, r.End)
	counts := domain.Summarize(ds)
	p.metrics.YearsBuilt.Add(float64(counts.Years))
	p.metrics.EmptyYears.Add(float64(counts.EmptyYears))
	if counts.EmptyYears > 0 {
		p.logger.Warn("years without readings", "range", r.String(), "empty_years", counts.EmptyYears)
	}

	for _, sink := range p.sinks {
		if err := p.store(ctx, sink, r, ds); err != nil {
			return nil, err
		}
	}

	elapsed := clock.Since(start)
	p.metrics.BuildDuration.Observe(elapsed.Seconds())
	p.ready.Store(true)
	p.metrics.PipelineReady.Set(1)

	p.logger.Info("dataset built",
		"range", r.String(),
		"records", len(records),
		"years", counts.Years,
		"readings", counts.Readings,
		"sinks", len(p.sinks),
		"duration", elapsed,
	)
	return ds, nil
}

// store writes ds to one sink, retrying failed attempts with exponential
// backoff. Cancellation stops the retries.
func (p *Pipeline) store(ctx context.Context, sink DatasetSink, r domain.YearRange, ds domain.Dataset) error {
	backoff := p.initialBackoff
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = sink.Store(ctx, r, ds); err == nil {
			p.metrics.SinkWrites.WithLabelValues(sink.Name(), "success").Inc()
			return nil
		}
		p.metrics.SinkWrites.WithLabelValues(sink.Name(), "error").Inc()
		p.logger.Error("sink write failed", "sink", sink.Name(), "attempt", attempt, "error", err)

		if attempt == p.attempts {
			break
		}
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, p.maxBackoff)
	}
	return fmt.Errorf("store to %s: %w", sink.Name(), err)
}
