package message

import "errors"

var (
	ErrEncodeFailed = errors.New("failed to encode message")
	ErrDecodeFailed = errors.New("failed to decode message")
)
