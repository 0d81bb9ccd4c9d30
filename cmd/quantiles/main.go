package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/samplestream/internal/config"
	"github.com/sanspareilsmyn/samplestream/internal/logging"
	"github.com/sanspareilsmyn/samplestream/internal/order"
	"github.com/sanspareilsmyn/samplestream/internal/pipeline"
	"github.com/sanspareilsmyn/samplestream/internal/report"
	"github.com/sanspareilsmyn/samplestream/internal/sampler"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to the configuration file")
	samples    = flag.Int("n", 1_000_000, "Number of samples to draw")
	bins       = flag.Int("bins", 20, "Number of histogram bins, 0 to skip the histogram")
)

// quantiles draws a sample of the configured sampler into memory and prints
// its quantiles and histogram.
func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %s: %v\n", *configFile, err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(cfg, logger); err != nil {
		logger.Error("Quantiles failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if *samples < 1 {
		return report.ErrNoSamples
	}

	s, err := sampler.FromConfig(cfg.Sampler)
	if err != nil {
		return err
	}

	dcfg := pipeline.DriverConfigFrom(cfg)
	dcfg.SamplesPerChunk = dcfg.Threads // Fill brings its own buffer
	driver, err := pipeline.NewDriver(s, dcfg)
	if err != nil {
		return err
	}

	xs := make([]float64, *samples)
	if err := driver.Fill(context.Background(), xs); err != nil {
		return err
	}
	logger.Debug("Samples drawn", zap.Int("n", len(xs)), zap.Int("threads", driver.Threads()))

	summary, err := order.Summarize(xs)
	if err != nil {
		return err
	}
	if err := report.WriteSummary(os.Stdout, cfg.Report.Format, summary); err != nil {
		return err
	}

	if *bins == 0 || cfg.Report.Format != report.FormatText {
		return nil
	}
	counts, lo, width, err := report.AutoHistogram(xs, *bins)
	if err != nil {
		return err
	}
	return report.WriteHistogram(os.Stdout, counts, lo, width)
}
