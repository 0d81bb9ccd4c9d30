package sampler

import "math"

// NormalParams parameterizes a normal distribution.
type NormalParams struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// LognormalParams parameterizes a lognormal by the moments of its logarithm.
type LognormalParams struct {
	LogMean float64 `json:"log_mean"`
	LogStd  float64 `json:"log_std"`
}

// SumNormals returns the distribution of the sum of two independent normals.
func SumNormals(a, b NormalParams) NormalParams {
	return NormalParams{
		Mean: a.Mean + b.Mean,
		Std:  math.Sqrt(a.Std*a.Std + b.Std*b.Std),
	}
}

// ProductLognormals returns the distribution of the product of two
// independent lognormals.
func ProductLognormals(a, b LognormalParams) LognormalParams {
	return LognormalParams{
		LogMean: a.LogMean + b.LogMean,
		LogStd:  math.Sqrt(a.LogStd*a.LogStd + b.LogStd*b.LogStd),
	}
}

// CIToLognormal returns the lognormal whose 90% interval is [low, high].
func CIToLognormal(low, high float64) LognormalParams {
	logLow, logHigh := math.Log(low), math.Log(high)
	return LognormalParams{
		LogMean: (logHigh + logLow) / 2,
		LogStd:  (logHigh - logLow) / (2 * Normal90Confidence),
	}
}

// LognormalToCI returns the 90% interval of a lognormal.
func LognormalToCI(p LognormalParams) (low, high float64) {
	h := p.LogStd * Normal90Confidence
	return math.Exp(p.LogMean - h), math.Exp(p.LogMean + h)
}
