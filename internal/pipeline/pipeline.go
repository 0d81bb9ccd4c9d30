package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/samplestream/internal/config"
	"github.com/sanspareilsmyn/samplestream/internal/sampler"
	"github.com/sanspareilsmyn/samplestream/internal/stats"
)

// snapshot is a private copy of the global aggregate handed to the reporter.
type snapshot struct {
	iteration int
	agg       *stats.Aggregate
}

// Pipeline orchestrates the stages of a run: sampling, gathering and
// reporting.
type Pipeline struct {
	cfg      *config.Config
	driver   *Driver
	gatherer Gatherer
	reporter *Reporter
	logger   *zap.Logger

	global    *stats.Aggregate // coordinator only
	snapshots chan snapshot
}

// Option customises a Pipeline built by New.
type Option func(*options)

type options struct {
	gatherer Gatherer
	out      io.Writer
}

// WithGatherer replaces the gatherer chosen by the transport configuration.
func WithGatherer(g Gatherer) Option {
	return func(o *options) { o.gatherer = g }
}

// WithOutput sends reports to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// New creates and wires up a new sampling pipeline.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")
	initLogger.Debug("Creating pipeline components...")

	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	hist, widened, err := cfg.Histogram.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDriverConfig, err)
	}
	if widened {
		initLogger.Warn("Histogram domain is empty, widened",
			zap.Float64("min", hist.Min), zap.Float64("sup", hist.Sup))
	}

	s, err := sampler.FromConfig(cfg.Sampler)
	if err != nil {
		initLogger.Error("Failed to create sampler", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSamplerCreation, err)
	}

	dcfg := DriverConfigFrom(cfg)
	dcfg.Histogram = hist
	driver, err := NewDriver(s, dcfg)
	if err != nil {
		return nil, err
	}
	initLogger.Debug("Driver created",
		zap.Int("threads", dcfg.Threads),
		zap.Int("samples_per_chunk", dcfg.SamplesPerChunk),
	)

	gatherer := o.gatherer
	if gatherer == nil {
		gatherer, err = newGatherer(cfg, logger.Named("gatherer"))
		if err != nil {
			initLogger.Error("Failed to create gatherer", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrGathererCreation, err)
		}
	}

	p := &Pipeline{
		cfg:       cfg,
		driver:    driver,
		gatherer:  gatherer,
		logger:    logger.Named("pipeline"),
		snapshots: make(chan snapshot, 1),
	}
	if cfg.Execution.Coordinator() {
		p.global, err = stats.NewAggregate(hist, cfg.Outliers.Limit())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDriverConfig, err)
		}
		p.reporter = NewReporter(cfg, o.out, logger.Named("reporter"))
	}

	initLogger.Info("Pipeline instance created successfully",
		zap.String("run_id", cfg.Run.ID),
		zap.Int("rank", cfg.Execution.ProcessRank),
		zap.Int("process_count", cfg.Execution.ProcessCount),
		zap.String("sampler", cfg.Sampler.Kind),
	)
	return p, nil
}

func newGatherer(cfg *config.Config, logger *zap.Logger) (Gatherer, error) {
	switch cfg.Transport.Kind {
	case config.TransportKafka:
		return NewKafkaGatherer(cfg.Transport.Kafka, cfg.Run.ID, cfg.Execution, cfg.Outliers.Limit(), logger)
	default:
		return LocalGatherer{}, nil
	}
}

// Run samples until the budget is spent or ctx is cancelled. Cancellation is
// honoured between iterations; the coordinator reports the last completed
// iteration before returning.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sugar := p.logger.Sugar()
	var wg sync.WaitGroup
	pipelineErr := make(chan error, 2) // sampling, reporter

	sugar.Info("Pipeline Run: Starting components...")

	wg.Add(2)
	go p.runSampling(ctx, &wg, pipelineErr)
	go p.runReporter(&wg, pipelineErr)

	go func() {
		wg.Wait()
		close(pipelineErr)
	}()

	// The first error stops the other component.
	var firstErr error
	for err := range pipelineErr {
		if firstErr == nil {
			sugar.Errorw("Pipeline Run: Received error from a component, initiating shutdown...", zap.Error(err))
			firstErr = err
			cancel()
		}
	}
	sugar.Info("Pipeline Run: All components finished.")

	return firstErr
}

// runSampling executes the sampling loop in a goroutine.
func (p *Pipeline) runSampling(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer func() {
		close(p.snapshots)
		p.logger.Debug("Snapshot channel closed")
	}()

	p.logger.Debug("Starting sampling goroutine...")
	if err := p.sample(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Sampling component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrSamplingRunFailed, err)
	} else if err == nil {
		p.logger.Debug("Sampling goroutine finished normally")
	} else {
		p.logger.Debug("Sampling goroutine cancelled gracefully")
	}
}

// runReporter publishes snapshots until the sampling loop closes the channel.
// After a failure it keeps draining so that the sampling loop never blocks.
func (p *Pipeline) runReporter(wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()

	p.logger.Debug("Starting reporter goroutine...")
	failed := false
	for snap := range p.snapshots {
		if failed {
			continue
		}
		if err := p.reporter.Publish(snap.iteration, snap.agg); err != nil {
			p.logger.Error("Reporter component exited with error", zap.Error(err))
			errCh <- fmt.Errorf("%w: %w", ErrReporterRunFailed, err)
			failed = true
		}
	}
	p.logger.Debug("Reporter goroutine finished")
}

// sample is the iteration loop: draw a chunk, gather the partials and, on the
// coordinator, fold them into the global aggregate and report it.
func (p *Pipeline) sample(ctx context.Context) error {
	sugar := p.logger.Sugar()
	budget := p.cfg.Run.TotalSampleBudget
	perIteration := p.cfg.SamplesPerIteration()
	printEvery := p.cfg.Run.PrintEvery
	coordinator := p.cfg.Execution.Coordinator()

	var drawn uint64
	reported, iteration := 0, 0
	warnedDropped := false

	defer func() {
		if err := p.gatherer.Close(); err != nil {
			sugar.Errorw("Failed to close gatherer cleanly", zap.Error(err))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			sugar.Infow("Sampling stopped", zap.Int("iteration", iteration), zap.Uint64("samples", drawn))
			if coordinator && reported < iteration {
				p.snapshots <- snapshot{iteration: iteration, agg: p.global.Clone()}
			}
			return err
		}
		iteration++

		start := time.Now()
		local, err := p.driver.RunChunk(ctx)
		if err != nil {
			return err
		}
		chunkDuration.Observe(time.Since(start).Seconds())

		parts, err := p.gatherer.Gather(ctx, iteration, local)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				iteration-- // never completed
				continue
			}
			return err
		}
		drawn += perIteration

		last := budget > 0 && drawn >= budget
		if coordinator {
			err := p.global.Merge(parts...)
			if err != nil && !errors.Is(err, stats.ErrOutlierBufferFull) {
				return fmt.Errorf("%w: %w", ErrReduceFailed, err)
			}
			if !warnedDropped && p.global.Outliers.Limit() >= 0 && p.global.Outliers.Dropped() > 0 {
				sugar.Warnw("Outlier buffer full, further outliers are only counted",
					zap.Int("limit", p.global.Outliers.Limit()))
				warnedDropped = true
			}
			if iteration%printEvery == 0 || last {
				p.snapshots <- snapshot{iteration: iteration, agg: p.global.Clone()}
				reported = iteration
			}
		}

		if last {
			sugar.Infow("Sample budget reached", zap.Int("iteration", iteration), zap.Uint64("samples", drawn))
			return nil
		}
	}
}
