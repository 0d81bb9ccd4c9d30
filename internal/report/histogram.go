package report

import (
	"fmt"
	"io"
	"strings"
)

// MaxBarWidth caps the length of a histogram bar in characters.
const MaxBarWidth = 50

// WriteHistogram prints one line per bin: its interval, a bar proportional to
// its count (scaled down when the largest count exceeds MaxBarWidth) and the
// count itself.
func WriteHistogram(w io.Writer, counts []uint64, min, binWidth float64) error {
	var largest uint64
	for _, c := range counts {
		largest = max(largest, c)
	}
	scale := 1.0
	if largest > MaxBarWidth {
		scale = float64(MaxBarWidth) / float64(largest)
	}

	format := intervalFormat(binWidth)
	for i, c := range counts {
		start := min + float64(i)*binWidth
		end := start + binWidth
		bar := strings.Repeat("█", int(float64(c)*scale))
		if _, err := fmt.Fprintf(w, "  "+format+" %s %d\n", start, end, bar, c); err != nil {
			return err
		}
	}
	return nil
}

// intervalFormat picks enough decimals to tell neighbouring bins apart.
func intervalFormat(binWidth float64) string {
	switch {
	case binWidth < 0.01:
		return "[%4.3f, %4.3f):"
	case binWidth < 0.1:
		return "[%4.2f, %4.2f):"
	case binWidth < 1:
		return "[%4.1f, %4.1f):"
	case binWidth < 10:
		return "[%4.0f, %4.0f):"
	default:
		return "[%4f, %4f):"
	}
}

// AutoHistogram bins xs over [min(xs), max(xs)] with n bins, the largest value
// falling into the last bin. A sample of identical values is given a domain of
// width one.
func AutoHistogram(xs []float64, n int) (counts []uint64, min, binWidth float64, err error) {
	if n <= 0 {
		return nil, 0, 0, ErrInvalidBinCount
	}
	if len(xs) == 0 {
		return nil, 0, 0, ErrNoSamples
	}

	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if lo == hi {
		hi++
	}

	binWidth = (hi - lo) / float64(n)
	counts = make([]uint64, n)
	for _, x := range xs {
		idx := int((x - lo) / binWidth)
		if idx >= n {
			idx = n - 1
		}
		counts[idx]++
	}
	return counts, lo, binWidth, nil
}
