package sampler

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSamplerKind   = errors.New("unknown sampler kind")
	ErrInvalidSamplerParams = errors.New("invalid sampler parameters")
)

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSamplerParams, fmt.Sprintf(format, args...))
}
