package order

import (
	"fmt"
	"math"
)

// CI is a confidence interval. As an argument to ConfidenceInterval its
// bounds are probabilities; as a result they are sample values.
type CI struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

var (
	Interval90 = CI{Low: 0.05, High: 0.95}
	Interval80 = CI{Low: 0.10, High: 0.90}
	Interval50 = CI{Low: 0.25, High: 0.75}
)

// Median returns the value at rank floor(n/2). For an even count that is the
// upper of the two middle values.
func Median(xs []float64) (float64, error) {
	return Quickselect(len(xs)/2, xs)
}

// ConfidenceInterval selects ranks floor(low*n) and ceil(high*n). The upper
// rank is clamped to n-1 so that intervals reaching 1 stay inside the sample.
func ConfidenceInterval(interval CI, xs []float64) (CI, error) {
	if interval.Low < 0 || interval.High > 1 || interval.Low > interval.High {
		return CI{}, fmt.Errorf("%w: [%g, %g]", ErrInvalidInterval, interval.Low, interval.High)
	}
	n := len(xs)
	if n == 0 {
		return CI{}, ErrEmptyInput
	}

	lowK := int(math.Floor(interval.Low * float64(n)))
	highK := int(math.Ceil(interval.High * float64(n)))
	lowK = min(lowK, n-1)
	highK = min(highK, n-1)

	lo, err := Quickselect(lowK, xs)
	if err != nil {
		return CI{}, err
	}
	hi, err := Quickselect(highK, xs)
	if err != nil {
		return CI{}, err
	}
	return CI{Low: lo, High: hi}, nil
}

// CI90 is the 5%-95% interval.
func CI90(xs []float64) (CI, error) { return ConfidenceInterval(Interval90, xs) }

// Summary describes an in-memory sample.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P5     float64 `json:"p5"`
	P10    float64 `json:"p10"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
}

// Summarize computes the mean, population standard deviation and the usual
// quantiles of xs.
func Summarize(xs []float64) (Summary, error) {
	if len(xs) == 0 {
		return Summary{}, ErrEmptyInput
	}

	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	sq := 0.0
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}

	ci90, err := CI90(xs)
	if err != nil {
		return Summary{}, err
	}
	ci80, err := ConfidenceInterval(Interval80, xs)
	if err != nil {
		return Summary{}, err
	}
	ci50, err := ConfidenceInterval(Interval50, xs)
	if err != nil {
		return Summary{}, err
	}
	median, err := Median(xs)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		N:      len(xs),
		Mean:   mean,
		StdDev: math.Sqrt(sq / float64(len(xs))),
		P5:     ci90.Low,
		P10:    ci80.Low,
		P25:    ci50.Low,
		P50:    median,
		P75:    ci50.High,
		P90:    ci80.High,
		P95:    ci90.High,
	}, nil
}
