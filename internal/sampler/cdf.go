package sampler

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sanspareilsmyn/samplestream/internal/config"
	"github.com/sanspareilsmyn/samplestream/internal/rng"
	"github.com/sanspareilsmyn/samplestream/internal/rootfind"
)

// cdfRetries is how many fresh draws a CDF sampler attempts before giving up
// on a sample.
const cdfRetries = 3

// CDF samples an arbitrary distribution given only its (fallible) CDF.
type CDF struct {
	cdf rootfind.CDF
}

// NewCDF wraps cdf as a sampler.
func NewCDF(cdf rootfind.CDF) *CDF {
	return &CDF{cdf: cdf}
}

// SampleResult draws once and reports inversion failures.
func (c *CDF) SampleResult(seed *rng.Seed) rootfind.Result[float64] {
	return rootfind.Sample(c.cdf, seed)
}

// Sample retries failed inversions with fresh draws and returns NaN when all
// of them fail. A NaN sample is counted as non-finite by the statistics and
// as an outlier by the histogram; it never enters the moments.
func (c *CDF) Sample(seed *rng.Seed) float64 {
	for range cdfRetries {
		if x, err := c.SampleResult(seed).Get(); err == nil {
			return x
		}
	}
	return math.NaN()
}

// distributionCDF returns the CDF of a named gonum distribution.
func distributionCDF(name string, p config.SamplerConfig) (rootfind.CDF, error) {
	switch name {
	case "normal":
		if p.Std <= 0 {
			return nil, errorf("normal cdf needs std > 0")
		}
		return rootfind.Infallible(distuv.Normal{Mu: p.Mean, Sigma: p.Std}.CDF), nil
	case "lognormal":
		if p.Std <= 0 {
			return nil, errorf("lognormal cdf needs std > 0")
		}
		return rootfind.Infallible(distuv.LogNormal{Mu: p.Mean, Sigma: p.Std}.CDF), nil
	case "exponential":
		if p.Rate <= 0 {
			return nil, errorf("exponential cdf needs rate > 0")
		}
		return rootfind.Infallible(distuv.Exponential{Rate: p.Rate}.CDF), nil
	case "beta":
		if p.Alpha <= 0 || p.Beta <= 0 {
			return nil, errorf("beta cdf needs alpha, beta > 0")
		}
		return rootfind.Infallible(distuv.Beta{Alpha: p.Alpha, Beta: p.Beta}.CDF), nil
	default:
		return nil, errorf("unknown cdf distribution %q", name)
	}
}
