package stats

import "errors"

var (
	ErrEmptyChunk            = errors.New("chunk must contain at least one sample")
	ErrInvalidHistogram      = errors.New("invalid histogram configuration")
	ErrInconsistentHistogram = errors.New("histogram bin count does not match domain and bin width")
	ErrHistogramMismatch     = errors.New("cannot merge histograms with different configurations")
	ErrOutlierBufferFull     = errors.New("outlier buffer limit reached, outlier counted but not recorded")
	ErrNothingToReduce       = errors.New("no aggregates to reduce")
)
