package stats

import "math"

// SummaryStats holds the moments and extrema of a set of samples.
// Variance is the sample variance of the observed values (divided by N).
// Non-finite samples (NaN, ±Inf) are counted in NonFinite and take no part in
// N, the extrema or the moments.
type SummaryStats struct {
	N         uint64  `msgpack:"n" json:"n"`
	NonFinite uint64  `msgpack:"non_finite" json:"non_finite"`
	Min       float64 `msgpack:"min" json:"min"`
	Max       float64 `msgpack:"max" json:"max"`
	Mean      float64 `msgpack:"mean" json:"mean"`
	Variance  float64 `msgpack:"variance" json:"variance"`
}

// StdDev returns the square root of the variance.
func (s SummaryStats) StdDev() float64 {
	return math.Sqrt(s.Variance)
}

// Total counts every sample observed, finite or not.
func (s SummaryStats) Total() uint64 {
	return s.N + s.NonFinite
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// ChunkStats computes the summary of one contiguous batch of samples.
// The first pass gathers sum and extrema, the second the squared deviations
// from the mean.
func ChunkStats(xs []float64) (SummaryStats, error) {
	if len(xs) == 0 {
		return SummaryStats{}, ErrEmptyChunk
	}

	var s SummaryStats
	sum := 0.0
	for _, x := range xs {
		if !finite(x) {
			s.NonFinite++
			continue
		}
		if s.N == 0 || x < s.Min {
			s.Min = x
		}
		if s.N == 0 || x > s.Max {
			s.Max = x
		}
		s.N++
		sum += x
	}
	if s.N == 0 {
		return s, nil
	}
	n := float64(s.N)
	s.Mean = sum / n
	if s.N == 1 {
		return s, nil
	}

	sq := 0.0
	for _, x := range xs {
		if !finite(x) {
			continue
		}
		d := x - s.Mean
		sq += d * d
	}
	s.Variance = sq / n
	return s, nil
}

// Merge combines the statistics of two disjoint sample sets (Chan et al.).
// An empty operand is the identity.
func Merge(x, y SummaryStats) SummaryStats {
	nonFinite := x.NonFinite + y.NonFinite
	switch {
	case x.N == 0:
		y.NonFinite = nonFinite
		return y
	case y.N == 0:
		x.NonFinite = nonFinite
		return x
	}

	nx, ny := float64(x.N), float64(y.N)
	n := nx + ny
	d := x.Mean - y.Mean

	variance := (x.Variance*nx+y.Variance*ny)/n + (nx*ny/(n*n))*d*d
	if variance < 0 {
		variance = 0
	}

	return SummaryStats{
		N:         x.N + y.N,
		NonFinite: nonFinite,
		Min:       math.Min(x.Min, y.Min),
		Max:       math.Max(x.Max, y.Max),
		Mean:      (x.Mean*nx + y.Mean*ny) / n,
		Variance:  variance,
	}
}
