package rootfind

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sanspareilsmyn/samplestream/internal/rng"
)

func TestInverseCDF_StandardNormal(t *testing.T) {
	cdf := Infallible(distuv.UnitNormal.CDF)

	x, err := InverseCDF(cdf, 0.5).Get()
	require.NoError(t, err)
	assert.InDelta(t, 0.0, x, 1e-6)

	x, err = InverseCDF(cdf, 0.975).Get()
	require.NoError(t, err)
	assert.InDelta(t, 1.959964, x, 1e-4)

	x, err = InverseCDF(cdf, 0.05).Get()
	require.NoError(t, err)
	assert.InDelta(t, -1.6448536269514727, x, 1e-6)
}

func TestInverseCDF_NeedsWideBracket(t *testing.T) {
	wide := distuv.Normal{Mu: 1e6, Sigma: 10}
	x, err := InverseCDF(Infallible(wide.CDF), 0.5).Get()
	require.NoError(t, err)
	assert.InDelta(t, 1e6, x, 1e-3)
}

func TestInverseCDF_ConstantFailsToBracket(t *testing.T) {
	constant := Infallible(func(float64) float64 { return 0.5 })

	for _, p := range []float64{0.3, 0.5, 0.7} {
		r := InverseCDF(constant, p)
		require.False(t, r.IsOk())
		assert.ErrorIs(t, r.Err(), ErrBracketNotFound)

		var rerr *Error
		require.True(t, errors.As(r.Err(), &rerr))
		assert.Contains(t, rerr.Location, "inverse.go:")
	}
}

func TestInverseCDF_InvalidProbability(t *testing.T) {
	cdf := Infallible(distuv.UnitNormal.CDF)
	for _, p := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		assert.ErrorIs(t, InverseCDF(cdf, p).Err(), ErrInvalidProbability)
	}
}

func TestInverseCDF_PropagatesCDFFailure(t *testing.T) {
	boom := errors.New("table lookup failed")
	failing := CDF(func(x float64) Result[float64] {
		if x > 0.3 {
			return Fail[float64](boom)
		}
		return Ok(distuv.UnitNormal.CDF(x))
	})

	r := InverseCDF(failing, 0.6)
	assert.ErrorIs(t, r.Err(), boom)
	assert.ErrorIs(t, r.Err(), ErrCDFFailed)
	assert.Contains(t, r.Err().Error(), "table lookup failed")

	nan := Infallible(func(float64) float64 { return math.NaN() })
	assert.ErrorIs(t, InverseCDF(nan, 0.5).Err(), ErrCDFFailed)
}

func TestInverseCDFWithLimit_NoConvergence(t *testing.T) {
	cdf := Infallible(distuv.UnitNormal.CDF)
	r := InverseCDFWithLimit(cdf, 0.975, 3)
	assert.ErrorIs(t, r.Err(), ErrNoConvergence)
}

func TestSample(t *testing.T) {
	cdf := Infallible(distuv.Exponential{Rate: 2}.CDF)
	seed := rng.NewSeed(17)

	sum := 0.0
	const n = 2000
	for range n {
		x, err := Sample(cdf, &seed).Get()
		require.NoError(t, err)
		require.GreaterOrEqual(t, x, 0.0)
		sum += x
	}
	assert.InDelta(t, 0.5, sum/n, 0.05)
}

func TestFail_NilError(t *testing.T) {
	r := Fail[int](nil)
	assert.False(t, r.IsOk())
	assert.Error(t, r.Err())
}
