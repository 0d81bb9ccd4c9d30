package report

import "errors"

var (
	ErrInvalidBinCount = errors.New("number of bins must be a positive integer")
	ErrNoSamples       = errors.New("number of samples must be a positive integer")
	ErrUnknownFormat   = errors.New("unknown report format")
	ErrWriteFailed     = errors.New("failed to write report")
)
