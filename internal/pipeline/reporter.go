package pipeline

import (
	"io"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/samplestream/internal/config"
	"github.com/sanspareilsmyn/samplestream/internal/report"
	"github.com/sanspareilsmyn/samplestream/internal/stats"
)

// Prometheus Metrics Definition
var (
	aggregateSamples = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "samplestream_aggregate_samples",
			Help: "Number of samples in the global aggregate at the last report.",
		},
		[]string{"run_id"},
	)
	aggregateMean = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "samplestream_aggregate_mean",
			Help: "Mean of the global aggregate at the last report.",
		},
		[]string{"run_id"},
	)
	aggregateStdDev = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "samplestream_aggregate_stddev",
			Help: "Standard deviation of the global aggregate at the last report.",
		},
		[]string{"run_id"},
	)
	aggregateMin = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "samplestream_aggregate_min",
			Help: "Smallest sample seen so far.",
		},
		[]string{"run_id"},
	)
	aggregateMax = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "samplestream_aggregate_max",
			Help: "Largest sample seen so far.",
		},
		[]string{"run_id"},
	)
	aggregateOutliers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "samplestream_aggregate_outliers",
			Help: "Samples that fell outside the histogram domain, recorded or not.",
		},
		[]string{"run_id"},
	)
	aggregateNonFinite = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "samplestream_aggregate_non_finite",
			Help: "NaN or infinite samples, kept out of the moments.",
		},
		[]string{"run_id"},
	)
	aggregateIteration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "samplestream_iteration",
			Help: "Iteration of the last report.",
		},
		[]string{"run_id"},
	)
	thresholdViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samplestream_threshold_violations_total",
			Help: "Total number of threshold violations detected, per check.",
		},
		[]string{"run_id", "check_type", "comparison"},
	)
	chunkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "samplestream_chunk_duration_seconds",
			Help:    "Time taken by one process to draw and reduce one chunk.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		},
	)
)

// Reporter renders snapshots of the global aggregate, publishes them as
// metrics and checks them against the configured thresholds.
type Reporter struct {
	runID      string
	format     string
	path       string
	printLimit int
	thresholds config.Thresholds
	out        io.Writer
	logger     *zap.Logger
}

// NewReporter creates a reporter printing to out.
func NewReporter(cfg *config.Config, out io.Writer, logger *zap.Logger) *Reporter {
	logger.Debug("Reporter initialized",
		zap.String("format", cfg.Report.Format),
		zap.String("path", cfg.Report.Path),
	)
	return &Reporter{
		runID:      cfg.Run.ID,
		format:     cfg.Report.Format,
		path:       cfg.Report.Path,
		printLimit: cfg.Outliers.PrintLimit,
		thresholds: cfg.Alerts,
		out:        out,
		logger:     logger,
	}
}

// Publish reports the aggregate as of the given iteration.
func (r *Reporter) Publish(iteration int, agg *stats.Aggregate) error {
	rep := report.New(r.runID, iteration, agg, r.printLimit)

	r.updateMetrics(iteration, agg)
	r.checkThresholds(iteration, agg)

	if err := report.Write(r.out, r.format, rep); err != nil {
		return err
	}
	if r.path != "" {
		if err := report.WriteFile(r.path, r.format, rep); err != nil {
			return err
		}
	}

	r.logger.Debug("Report published",
		zap.Int("iteration", iteration),
		zap.Uint64("samples", agg.Stats.Total()),
		zap.Float64("mean", agg.Stats.Mean),
		zap.Float64("stddev", agg.Stats.StdDev()),
	)
	return nil
}

func (r *Reporter) updateMetrics(iteration int, agg *stats.Aggregate) {
	s := agg.Stats
	aggregateIteration.WithLabelValues(r.runID).Set(float64(iteration))
	aggregateSamples.WithLabelValues(r.runID).Set(float64(s.Total()))
	aggregateNonFinite.WithLabelValues(r.runID).Set(float64(s.NonFinite))
	aggregateOutliers.WithLabelValues(r.runID).Set(float64(agg.Outliers.Count()))
	if s.N == 0 {
		return
	}
	aggregateMean.WithLabelValues(r.runID).Set(orZero(s.Mean))
	aggregateStdDev.WithLabelValues(r.runID).Set(orZero(s.StdDev()))
	aggregateMin.WithLabelValues(r.runID).Set(orZero(s.Min))
	aggregateMax.WithLabelValues(r.runID).Set(orZero(s.Max))
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// checkThresholds logs and counts every violated threshold. It returns the
// number of violations.
func (r *Reporter) checkThresholds(iteration int, agg *stats.Aggregate) int {
	if agg.Stats.Total() == 0 {
		return 0
	}
	t := r.thresholds
	outlierRate := float64(agg.Outliers.Count()) / float64(agg.Stats.Total())

	violations := 0
	violations += r.checkRange(iteration, "mean", agg.Stats.Mean, t.MeanMin, t.MeanMax)
	violations += r.checkRange(iteration, "stddev", agg.Stats.StdDev(), t.StdDevMin, t.StdDevMax)
	violations += r.checkRange(iteration, "outlier_rate", outlierRate, nil, t.OutlierRate)
	return violations
}

func (r *Reporter) checkRange(iteration int, check string, actual float64, minThreshold, maxThreshold *float64) int {
	if math.IsNaN(actual) {
		return 0
	}
	violations := 0
	if minThreshold != nil && actual < *minThreshold {
		r.violation(iteration, check, "<", actual, *minThreshold)
		violations++
	}
	if maxThreshold != nil && actual > *maxThreshold {
		r.violation(iteration, check, ">", actual, *maxThreshold)
		violations++
	}
	return violations
}

func (r *Reporter) violation(iteration int, check, comparison string, actual, threshold float64) {
	r.logger.Warn("Threshold violation",
		zap.String("check_type", check),
		zap.Int("iteration", iteration),
		zap.Float64("actual", actual),
		zap.Float64("threshold", threshold),
		zap.String("comparison", comparison),
	)
	thresholdViolations.WithLabelValues(r.runID, check, comparison).Inc()
}
