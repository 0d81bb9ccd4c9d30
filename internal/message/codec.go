package message

import (
	"fmt"

	"github.com/shamaton/msgpack/v2"
)

// Encode serializes a Partial or Barrier with msgpack.
func Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	return data, nil
}

// DecodePartial parses a Partial from msgpack bytes.
func DecodePartial(data []byte) (Partial, error) {
	var p Partial
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return Partial{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return p, nil
}

// DecodeBarrier parses a Barrier from msgpack bytes.
func DecodeBarrier(data []byte) (Barrier, error) {
	var b Barrier
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return Barrier{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return b, nil
}
