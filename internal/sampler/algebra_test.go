package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumNormals(t *testing.T) {
	got := SumNormals(NormalParams{Mean: 1, Std: 3}, NormalParams{Mean: 2, Std: 4})
	assert.Equal(t, NormalParams{Mean: 3, Std: 5}, got)
}

func TestProductLognormals(t *testing.T) {
	got := ProductLognormals(LognormalParams{LogMean: 1, LogStd: 3}, LognormalParams{LogMean: -1, LogStd: 4})
	assert.Equal(t, LognormalParams{LogMean: 0, LogStd: 5}, got)
}

func TestLognormalCIRoundTrip(t *testing.T) {
	p := CIToLognormal(2, 50)
	assert.InDelta(t, math.Log(10), p.LogMean, 1e-12)

	low, high := LognormalToCI(p)
	assert.InDelta(t, 2, low, 1e-9)
	assert.InDelta(t, 50, high, 1e-9)
}
