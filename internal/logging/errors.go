package logging

import "errors"

var (
	ErrUnknownLogFormat   = errors.New("unknown log format")
	ErrNoLogOutputs       = errors.New("no logging outputs configured (neither console nor file enabled)")
	ErrCreateLogDirectory = errors.New("failed to create log directory")
)
