package report

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/sanspareilsmyn/samplestream/internal/order"
)

// WriteSummary prints the moments and quantiles of an in-memory sample.
func WriteSummary(w io.Writer, format string, s order.Summary) error {
	var err error
	switch format {
	case FormatText:
		_, err = fmt.Fprintf(w,
			"n %d, mean %g, std %g\n  p5 %g, p10 %g, p25 %g, p50 %g, p75 %g, p90 %g, p95 %g\n",
			s.N, s.Mean, s.StdDev, s.P5, s.P10, s.P25, s.P50, s.P75, s.P90, s.P95)
	case FormatJSON:
		err = json.NewEncoder(w).Encode(s)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
