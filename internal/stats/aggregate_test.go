package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantChunk(n int, v float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = v
	}
	return xs
}

func TestAggregate_ConstantScenario(t *testing.T) {
	cfg := HistogramConfig{Min: 0, Sup: 10, Bins: 10}

	var parts []*Aggregate
	for _, n := range []int{10, 20, 30} {
		part, err := NewAggregate(cfg, 0)
		require.NoError(t, err)
		require.NoError(t, part.ObserveChunk(constantChunk(n, 5.0)))
		assert.Equal(t, 5.0, part.Stats.Mean)
		assert.Equal(t, 0.0, part.Stats.Variance)
		parts = append(parts, part)
	}

	acc, err := NewAggregate(cfg, 0)
	require.NoError(t, err)
	require.NoError(t, acc.Merge(parts...))

	assert.Equal(t, SummaryStats{N: 60, Min: 5, Max: 5, Mean: 5, Variance: 0}, acc.Stats)
	assert.Equal(t, uint64(60), acc.Histogram.Counts()[5])
	assert.True(t, acc.Conserved())
}

func TestAggregate_Conservation(t *testing.T) {
	configs := []HistogramConfig{
		{Min: 0, Sup: 100, Bins: 50},
		{Min: -20, Sup: 0, Bins: 3},
		{Min: 10, Sup: 20, BinWidth: 2.5},
	}
	for _, cfg := range configs {
		for _, limit := range []int{0, 5, -1} {
			a, err := NewAggregate(cfg, limit)
			require.NoError(t, err)

			xs := randomSamples(2000, uint64(limit+10))
			err = a.ObserveChunk(xs)
			if err != nil {
				require.ErrorIs(t, err, ErrOutlierBufferFull)
			}
			assert.Equal(t, uint64(len(xs)), a.Histogram.Total()+a.Outliers.Count(), "cfg %+v limit %d", cfg, limit)
			assert.True(t, a.Conserved())
		}
	}
}

func TestAggregate_MergeMismatchIsFatal(t *testing.T) {
	a, _ := NewAggregate(HistogramConfig{Min: 0, Sup: 10, Bins: 10}, 0)
	b, _ := NewAggregate(HistogramConfig{Min: 0, Sup: 10, Bins: 5}, 0)
	require.NoError(t, b.ObserveChunk([]float64{1, 2}))

	err := a.Merge(b)
	assert.ErrorIs(t, err, ErrHistogramMismatch)
	assert.Equal(t, uint64(0), a.Stats.N, "a failed merge must not touch the stats")
}

func TestAggregate_MergeMismatchInLaterPartLeavesAggregateUntouched(t *testing.T) {
	cfg := HistogramConfig{Min: 0, Sup: 10, Bins: 10}
	a, _ := NewAggregate(cfg, 0)
	good, _ := NewAggregate(cfg, 0)
	require.NoError(t, good.ObserveChunk([]float64{1, 20}))
	bad, _ := NewAggregate(HistogramConfig{Min: 0, Sup: 10, Bins: 5}, 0)
	require.NoError(t, bad.ObserveChunk([]float64{3}))

	err := a.Merge(good, bad)
	assert.ErrorIs(t, err, ErrHistogramMismatch)
	assert.Equal(t, SummaryStats{}, a.Stats)
	assert.Zero(t, a.Histogram.Total())
	assert.Zero(t, a.Outliers.Count())
}

func TestAggregate_NonFiniteSamplesDoNotPoisonStats(t *testing.T) {
	a, _ := NewAggregate(HistogramConfig{Min: 0, Sup: 10, Bins: 10}, 0)
	require.NoError(t, a.ObserveChunk([]float64{math.NaN(), 1, 2}))
	require.NoError(t, a.ObserveChunk([]float64{3, math.Inf(1), 4, 5}))

	assert.Equal(t, uint64(5), a.Stats.N)
	assert.Equal(t, uint64(2), a.Stats.NonFinite)
	assert.Equal(t, 1.0, a.Stats.Min)
	assert.Equal(t, 5.0, a.Stats.Max)
	assert.Equal(t, 3.0, a.Stats.Mean)
	assert.InDelta(t, 2.0, a.Stats.Variance, 1e-12)
	assert.Equal(t, uint64(7), a.Stats.Total())
	assert.Equal(t, uint64(2), a.Outliers.Count(), "non-finite samples are outliers")
	assert.True(t, a.Conserved())
}

func TestAggregate_MergeOutlierOverflowIsNotFatal(t *testing.T) {
	cfg := HistogramConfig{Min: 0, Sup: 1, Bins: 1}
	a, _ := NewAggregate(cfg, 1)
	b, _ := NewAggregate(cfg, 0)
	require.NoError(t, b.ObserveChunk([]float64{5, 6, 7, 0.5}))

	err := a.Merge(b)
	assert.ErrorIs(t, err, ErrOutlierBufferFull)
	assert.Equal(t, uint64(4), a.Stats.N)
	assert.Equal(t, uint64(3), a.Outliers.Count())
	assert.True(t, a.Conserved())
}

func TestReduce(t *testing.T) {
	cfg := HistogramConfig{Min: -20, Sup: 80, Bins: 100}
	xs := randomSamples(3000, 3)

	whole, err := NewAggregate(cfg, 0)
	require.NoError(t, err)
	require.NoError(t, whole.ObserveChunk(xs))

	var parts []*Aggregate
	for i := 0; i < len(xs); i += 700 {
		p, err := NewAggregate(cfg, 0)
		require.NoError(t, err)
		require.NoError(t, p.ObserveChunk(xs[i:min(i+700, len(xs))]))
		parts = append(parts, p)
	}

	got, err := Reduce(parts)
	require.NoError(t, err)
	assert.Equal(t, whole.Stats.N, got.Stats.N)
	assert.InDelta(t, whole.Stats.Mean, got.Stats.Mean, 1e-9)
	assert.InEpsilon(t, whole.Stats.Variance, got.Stats.Variance, 1e-9)
	assert.Equal(t, whole.Histogram.Counts(), got.Histogram.Counts())
	assert.Equal(t, whole.Outliers.Count(), got.Outliers.Count())

	// reducing must not alias the first part
	parts[0].Histogram.Counts()[0] += 100
	assert.NotEqual(t, parts[0].Histogram.Counts()[0], got.Histogram.Counts()[0])

	_, err = Reduce(nil)
	assert.ErrorIs(t, err, ErrNothingToReduce)
}

func TestAggregate_CloneIsIndependent(t *testing.T) {
	a, _ := NewAggregate(HistogramConfig{Min: 0, Sup: 1, Bins: 2}, 0)
	require.NoError(t, a.ObserveChunk([]float64{0.1, 2}))

	c := a.Clone()
	a.Reset()

	assert.Equal(t, uint64(2), c.Stats.N)
	assert.Equal(t, uint64(1), c.Histogram.Total())
	assert.Equal(t, []float64{2}, c.Outliers.Values())
	assert.Equal(t, uint64(0), a.Stats.N)
}
