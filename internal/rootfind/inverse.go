package rootfind

import (
	"fmt"
	"math"

	"github.com/sanspareilsmyn/samplestream/internal/rng"
)

const (
	// DefaultMaxSteps caps bisection so termination never depends on the CDF.
	DefaultMaxSteps = math.MaxInt32 / 2

	bracketLimit = math.MaxFloat64 / 4
)

// CDF is a monotonic non-decreasing function onto [0, 1] that may fail.
type CDF func(x float64) Result[float64]

// Infallible lifts a plain function into a CDF. NaN outputs become failures.
func Infallible(f func(float64) float64) CDF {
	return func(x float64) Result[float64] {
		y := f(x)
		if math.IsNaN(y) {
			return Fail[float64](fmt.Errorf("%w: NaN at x=%g", ErrCDFFailed, x))
		}
		return Ok(y)
	}
}

// InverseCDF finds x with cdf(x) close to p.
func InverseCDF(cdf CDF, p float64) Result[float64] {
	return InverseCDFWithLimit(cdf, p, DefaultMaxSteps)
}

// InverseCDFWithLimit is InverseCDF with an explicit cap on bisection steps.
//
// The bracket starts at [-1, 1] and the side on the wrong side of p is
// doubled until cdf(low) < p < cdf(high), giving up past a quarter of the
// float range. Bisection then runs until the midpoint is no longer distinct
// from either end and returns the lower end.
func InverseCDFWithLimit(cdf CDF, p float64, maxSteps int) Result[float64] {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return Fail[float64](failure("inverse cdf", fmt.Errorf("%w: got %g", ErrInvalidProbability, p)))
	}

	low, high := -1.0, 1.0
	found := false
	for !found && low > -bracketLimit && high < bracketLimit {
		lo, err := cdf(low).Get()
		if err != nil {
			return Fail[float64](failure("inverse cdf: bracketing", fmt.Errorf("%w: %w", ErrCDFFailed, err)))
		}
		hi, err := cdf(high).Get()
		if err != nil {
			return Fail[float64](failure("inverse cdf: bracketing", fmt.Errorf("%w: %w", ErrCDFFailed, err)))
		}

		lowOK := lo < p
		highOK := p < hi
		switch {
		case lowOK && highOK:
			found = true
		case !lowOK:
			low *= 2
		default:
			high *= 2
		}
	}
	if !found {
		return Fail[float64](failure("inverse cdf", ErrBracketNotFound))
	}

	for step := 0; step < maxSteps; step++ {
		mid := (low + high) / 2
		if mid == low || mid == high {
			return Ok(low)
		}

		v, err := cdf(mid).Get()
		if err != nil {
			return Fail[float64](failure("inverse cdf: bisection", fmt.Errorf("%w: %w", ErrCDFFailed, err)))
		}
		switch d := v - p; {
		case d < 0:
			low = mid
		case d > 0:
			high = mid
		default:
			low, high = mid, mid
		}
	}
	return Fail[float64](failure("inverse cdf", fmt.Errorf("%w after %d steps", ErrNoConvergence, maxSteps)))
}

// Sample draws p uniformly from (0, 1) and inverts cdf at it.
func Sample(cdf CDF, seed *rng.Seed) Result[float64] {
	p := seed.Float64()
	for p >= 1 {
		p = seed.Float64()
	}
	return InverseCDF(cdf, p)
}
