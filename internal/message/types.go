package message

import (
	"github.com/sanspareilsmyn/samplestream/internal/stats"
)

// Partial is one process's reduced aggregate for one iteration, as sent to
// the coordinator.
type Partial struct {
	RunID           string                `msgpack:"run_id"`
	Iteration       int                   `msgpack:"iteration"`
	Rank            int                   `msgpack:"rank"`
	Stats           stats.SummaryStats    `msgpack:"stats"`
	Histogram       stats.HistogramConfig `msgpack:"histogram"`
	Counts          []uint64              `msgpack:"counts"`
	Outliers        []float64             `msgpack:"outliers"`
	OutliersDropped uint64                `msgpack:"outliers_dropped"`
}

// Barrier releases every process from the gather of one iteration.
type Barrier struct {
	RunID     string `msgpack:"run_id"`
	Iteration int    `msgpack:"iteration"`
}

// NewPartial flattens an aggregate for the wire.
func NewPartial(runID string, iteration, rank int, agg *stats.Aggregate) Partial {
	return Partial{
		RunID:           runID,
		Iteration:       iteration,
		Rank:            rank,
		Stats:           agg.Stats,
		Histogram:       agg.Histogram.Config(),
		Counts:          agg.Histogram.Counts(),
		Outliers:        agg.Outliers.Values(),
		OutliersDropped: agg.Outliers.Dropped(),
	}
}

// Aggregate rebuilds the aggregate carried by p. outlierLimit is the
// receiver's own recording limit.
func (p Partial) Aggregate(outlierLimit int) (*stats.Aggregate, error) {
	h, err := stats.HistogramFromCounts(p.Histogram, p.Counts)
	if err != nil {
		return nil, err
	}
	return &stats.Aggregate{
		Stats:     p.Stats,
		Histogram: h,
		Outliers:  stats.OutlierBufferFrom(p.Outliers, p.OutliersDropped, outlierLimit),
	}, nil
}
