// Package order extracts order statistics (quantiles, medians, confidence
// intervals) from in-memory samples without sorting them.
package order

import (
	"fmt"
	"math"
)

// Quickselect returns the value that would sit at zero-indexed rank k if xs
// were sorted. It works on a private copy; xs keeps its order.
func Quickselect(k int, xs []float64) (float64, error) {
	n := len(xs)
	if n == 0 {
		return 0, ErrEmptyInput
	}
	if k < 0 || k >= n {
		return 0, fmt.Errorf("%w: rank %d for %d values", ErrRankOutOfRange, k, n)
	}

	ys := make([]float64, n)
	copy(ys, xs)

	low, high := 0, n-1
	for low < high {
		j, err := partition(low, high, ys)
		if err != nil {
			return 0, err
		}
		if k <= j {
			high = j
		} else {
			low = j + 1
		}
	}
	return ys[k], nil
}

// partition splits ys[low..high] around the value of its middle element
// (Hoare). It returns j such that no value in ys[low..j] is greater than the
// pivot and no value in ys[j+1..high] is smaller; both halves are non-empty
// when low < high. Values equal to the pivot may land on either side, which
// keeps ties balanced. NaN orders before every number, as in sort.Float64s.
func partition(low, high int, ys []float64) (int, error) {
	if low > high || low < 0 || high >= len(ys) {
		return 0, fmt.Errorf("%w: [%d, %d] over %d values", ErrInvalidPartition, low, high, len(ys))
	}

	pv := ys[low+(high-low)/2]
	i, j := low-1, high+1
	for {
		for i++; less(ys[i], pv); i++ {
		}
		for j--; less(pv, ys[j]); j-- {
		}
		if i >= j {
			return j, nil
		}
		ys[i], ys[j] = ys[j], ys[i]
	}
}

func less(a, b float64) bool {
	return a < b || (math.IsNaN(a) && !math.IsNaN(b))
}
