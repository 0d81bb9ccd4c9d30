// Package sampler defines the Sampler capability and the distributions and
// models a run can be configured with.
package sampler

import (
	"math"

	"github.com/sanspareilsmyn/samplestream/internal/rng"
)

// Normal90Confidence is the standard normal quantile at 0.95, the half-width
// of a 90% interval measured in standard deviations.
const Normal90Confidence = 1.6448536269514727

// Sampler draws one value, advancing seed. Implementations must be pure apart
// from the seed so that concurrent callers with distinct seeds never interfere.
type Sampler interface {
	Sample(seed *rng.Seed) float64
}

// Func adapts a plain function to Sampler.
type Func func(seed *rng.Seed) float64

func (f Func) Sample(seed *rng.Seed) float64 { return f(seed) }

// Constant always returns its value.
type Constant float64

func (c Constant) Sample(*rng.Seed) float64 { return float64(c) }

// Uniform draws from (From, To].
type Uniform struct{ From, To float64 }

func (u Uniform) Sample(seed *rng.Seed) float64 {
	return u.From + seed.Float64()*(u.To-u.From)
}

// UnitNormal draws a standard normal variate (Box-Muller).
func UnitNormal(seed *rng.Seed) float64 {
	u1 := seed.Float64()
	u2 := seed.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Sin(2*math.Pi*u2)
}

// Normal draws from N(Mean, Std²).
type Normal struct{ Mean, Std float64 }

func (n Normal) Sample(seed *rng.Seed) float64 {
	return n.Mean + n.Std*UnitNormal(seed)
}

// Lognormal draws exp(N(LogMean, LogStd²)).
type Lognormal struct{ LogMean, LogStd float64 }

func (l Lognormal) Sample(seed *rng.Seed) float64 {
	return math.Exp(l.LogMean + l.LogStd*UnitNormal(seed))
}

// To draws from the lognormal whose 90% interval is [Low, High].
// Both bounds must be positive.
type To struct{ Low, High float64 }

func (t To) Sample(seed *rng.Seed) float64 {
	p := CIToLognormal(t.Low, t.High)
	return Lognormal{LogMean: p.LogMean, LogStd: p.LogStd}.Sample(seed)
}

// Gamma draws from Gamma(Alpha, 1) with the Marsaglia-Tsang method.
type Gamma struct{ Alpha float64 }

func (g Gamma) Sample(seed *rng.Seed) float64 {
	return sampleGamma(g.Alpha, seed)
}

func sampleGamma(alpha float64, seed *rng.Seed) float64 {
	if alpha < 1 {
		return sampleGamma(1+alpha, seed) * math.Pow(seed.Float64(), 1/alpha)
	}
	d := alpha - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = UnitNormal(seed)
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := seed.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// Beta draws from Beta(A, B) as a ratio of gamma variates.
type Beta struct{ A, B float64 }

func (b Beta) Sample(seed *rng.Seed) float64 {
	x := sampleGamma(b.A, seed)
	y := sampleGamma(b.B, seed)
	return x / (x + y)
}

// Mixture picks one of its samplers with probability proportional to its
// weight and draws from it.
type Mixture struct {
	samplers   []Sampler
	cumulative []float64
}

// NewMixture normalizes weights into a cumulative table.
func NewMixture(samplers []Sampler, weights []float64) (*Mixture, error) {
	if len(samplers) == 0 || len(samplers) != len(weights) {
		return nil, errorf("mixture needs one weight per component, got %d samplers and %d weights", len(samplers), len(weights))
	}
	total := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errorf("mixture weight %g is not a finite non-negative number", w)
		}
		total += w
	}
	if total == 0 {
		return nil, errorf("mixture weights sum to zero")
	}

	cumulative := make([]float64, len(weights))
	acc := 0.0
	for i, w := range weights {
		acc += w / total
		cumulative[i] = acc
	}
	cumulative[len(cumulative)-1] = 1
	return &Mixture{samplers: samplers, cumulative: cumulative}, nil
}

func (m *Mixture) Sample(seed *rng.Seed) float64 {
	p := seed.Float64()
	for i, c := range m.cumulative {
		if p < c {
			return m.samplers[i].Sample(seed)
		}
	}
	return m.samplers[len(m.samplers)-1].Sample(seed)
}
