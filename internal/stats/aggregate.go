package stats

import (
	"errors"
	"fmt"
)

// Aggregate is the reduction target: summary statistics, one histogram and the
// outliers that missed it. The same type is used for a single worker's chunk,
// a process and the global run.
type Aggregate struct {
	Stats     SummaryStats
	Histogram *Histogram
	Outliers  *OutlierBuffer
}

// NewAggregate creates an empty aggregate. outlierLimit follows
// NewOutlierBuffer; pass a negative limit to only count outliers.
func NewAggregate(cfg HistogramConfig, outlierLimit int) (*Aggregate, error) {
	h, err := NewHistogram(cfg)
	if err != nil {
		return nil, err
	}
	return &Aggregate{
		Histogram: h,
		Outliers:  NewOutlierBuffer(outlierLimit),
	}, nil
}

// ObserveChunk computes the chunk statistics of xs and classifies every sample
// into the histogram or the outlier buffer, merging the result into a.
// A full outlier buffer is reported with ErrOutlierBufferFull after the whole
// chunk has been classified; the statistics are valid either way.
func (a *Aggregate) ObserveChunk(xs []float64) error {
	s, err := ChunkStats(xs)
	if err != nil {
		return err
	}
	a.Stats = Merge(a.Stats, s)

	full := false
	for _, x := range xs {
		if a.Histogram.Observe(x) {
			continue
		}
		if err := a.Outliers.Append(x); errors.Is(err, ErrOutlierBufferFull) {
			full = true
		}
	}
	if full {
		return ErrOutlierBufferFull
	}
	return nil
}

// Merge folds parts into a, in order. A histogram mismatch in any part
// rejects the whole merge and leaves a untouched; a full outlier buffer does
// not and is reported after every part has been merged.
func (a *Aggregate) Merge(parts ...*Aggregate) error {
	for i, p := range parts {
		if p == nil || p.Histogram == nil {
			continue
		}
		if err := a.Histogram.compatible(p.Histogram); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}

	full := false
	for _, p := range parts {
		if p == nil {
			continue
		}
		_ = a.Histogram.Merge(p.Histogram) // compatibility checked above
		a.Stats = Merge(a.Stats, p.Stats)
		if err := a.Outliers.Merge(p.Outliers); errors.Is(err, ErrOutlierBufferFull) {
			full = true
		}
	}
	if full {
		return ErrOutlierBufferFull
	}
	return nil
}

// Conserved reports whether every sample is accounted for exactly once,
// either in a bin or as an outlier.
func (a *Aggregate) Conserved() bool {
	return a.Histogram.Total()+a.Outliers.Count() == a.Stats.Total()
}

// Reset empties the aggregate, keeping its configuration and storage.
func (a *Aggregate) Reset() {
	a.Stats = SummaryStats{}
	a.Histogram.Reset()
	a.Outliers.Reset()
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (a *Aggregate) Clone() *Aggregate {
	return &Aggregate{
		Stats:     a.Stats,
		Histogram: a.Histogram.Clone(),
		Outliers:  a.Outliers.Clone(),
	}
}

// Reduce merges parts into a fresh aggregate shaped like the first one. It is
// level-agnostic: the driver reduces worker chunks with it and the coordinator
// reduces process partials with it.
func Reduce(parts []*Aggregate) (*Aggregate, error) {
	if len(parts) == 0 || parts[0] == nil {
		return nil, ErrNothingToReduce
	}
	first := parts[0]
	out := &Aggregate{
		Histogram: &Histogram{cfg: first.Histogram.cfg, counts: make([]uint64, len(first.Histogram.counts))},
		Outliers:  NewOutlierBuffer(first.Outliers.limit),
	}
	err := out.Merge(parts...)
	if err != nil && !errors.Is(err, ErrOutlierBufferFull) {
		return nil, err
	}
	return out, err
}
