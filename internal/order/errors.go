package order

import "errors"

var (
	ErrEmptyInput       = errors.New("order statistics need at least one value")
	ErrRankOutOfRange   = errors.New("rank out of range")
	ErrInvalidPartition = errors.New("invalid partition bounds")
	ErrInvalidInterval  = errors.New("interval bounds must satisfy 0 <= low <= high <= 1")
)
