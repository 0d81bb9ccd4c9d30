package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sanspareilsmyn/samplestream/internal/config"
	"github.com/sanspareilsmyn/samplestream/internal/rng"
	"github.com/sanspareilsmyn/samplestream/internal/sampler"
	"github.com/sanspareilsmyn/samplestream/internal/stats"
)

// DriverConfig sizes the work of one process.
type DriverConfig struct {
	Threads         int
	SamplesPerChunk int
	Seed            uint64
	Rank            int
	Histogram       stats.HistogramConfig
	OutlierLimit    int
}

// DriverConfigFrom extracts the driver settings from the run configuration.
func DriverConfigFrom(cfg *config.Config) DriverConfig {
	return DriverConfig{
		Threads:         cfg.Execution.ThreadCount,
		SamplesPerChunk: cfg.Run.SamplesPerChunk,
		Seed:            cfg.Run.Seed,
		Rank:            cfg.Execution.ProcessRank,
		Histogram:       cfg.Histogram,
		OutlierLimit:    cfg.Outliers.Limit(),
	}
}

// Driver draws the samples of one process. Every worker owns one seed cell
// and a contiguous slice of a buffer allocated once and reused for every
// chunk.
type Driver struct {
	sampler sampler.Sampler
	cells   []rng.Cell
	buf     []float64
	parts   []*stats.Aggregate
}

// NewDriver allocates the seed cells, the sample buffer and one private
// aggregate per worker.
func NewDriver(s sampler.Sampler, cfg DriverConfig) (*Driver, error) {
	if cfg.Threads < 1 {
		return nil, fmt.Errorf("%w: %d threads", ErrInvalidDriverConfig, cfg.Threads)
	}
	if cfg.SamplesPerChunk < cfg.Threads {
		return nil, fmt.Errorf("%w: %d samples for %d threads", ErrInvalidDriverConfig, cfg.SamplesPerChunk, cfg.Threads)
	}

	parts := make([]*stats.Aggregate, cfg.Threads)
	for i := range parts {
		agg, err := stats.NewAggregate(cfg.Histogram, cfg.OutlierLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDriverConfig, err)
		}
		parts[i] = agg
	}

	return &Driver{
		sampler: s,
		cells:   rng.NewCells(cfg.Threads, cfg.Seed, cfg.Rank),
		buf:     make([]float64, cfg.SamplesPerChunk),
		parts:   parts,
	}, nil
}

// Threads returns the number of workers.
func (d *Driver) Threads() int { return len(d.cells) }

// RunChunk draws one chunk, lets every worker summarise and classify its own
// slice, then reduces the worker aggregates into the process aggregate.
// Outliers beyond the recording limit are only counted; the returned
// aggregate reports them through Outliers.Dropped.
func (d *Driver) RunChunk(ctx context.Context) (*stats.Aggregate, error) {
	err := d.each(ctx, len(d.buf), func(i, lo, hi int) error {
		xs := d.buf[lo:hi]
		d.generate(i, xs)

		part := d.parts[i]
		part.Reset()
		if err := part.ObserveChunk(xs); err != nil && !errors.Is(err, stats.ErrOutlierBufferFull) {
			return fmt.Errorf("worker %d: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	agg, err := stats.Reduce(d.parts)
	if err != nil && !errors.Is(err, stats.ErrOutlierBufferFull) {
		return nil, fmt.Errorf("%w: %w", ErrReduceFailed, err)
	}
	return agg, nil
}

// Fill overwrites xs with fresh samples, split evenly between the workers.
func (d *Driver) Fill(ctx context.Context, xs []float64) error {
	return d.each(ctx, len(xs), func(i, lo, hi int) error {
		d.generate(i, xs[lo:hi])
		return nil
	})
}

func (d *Driver) generate(worker int, xs []float64) {
	seed := &d.cells[worker].Seed
	for j := range xs {
		xs[j] = d.sampler.Sample(seed)
	}
}

// each runs fn for every worker on its share [lo, hi) of n items and waits
// for all of them.
func (d *Driver) each(ctx context.Context, n int, fn func(worker, lo, hi int) error) error {
	g, _ := errgroup.WithContext(ctx)
	t := len(d.cells)
	for i := range t {
		lo, hi := i*n/t, (i+1)*n/t
		g.Go(func() error { return fn(i, lo, hi) })
	}
	return g.Wait()
}
