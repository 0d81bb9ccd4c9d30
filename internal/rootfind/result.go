// Package rootfind inverts monotonic CDFs that may themselves fail, and
// samples from them.
package rootfind

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

var (
	ErrBracketNotFound    = errors.New("interval containing the target value not found")
	ErrNoConvergence      = errors.New("search process did not converge")
	ErrInvalidProbability = errors.New("target probability must lie in (0, 1)")
	ErrCDFFailed          = errors.New("cdf evaluation failed")
)

// Result holds either a value or the error that prevented computing it.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

// Fail wraps an error. A nil error is turned into a generic failure so that a
// failed Result can never look successful.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unspecified failure")
	}
	return Result[T]{err: err}
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Get returns the value and error in the usual Go shape.
func (r Result[T]) Get() (T, error) { return r.value, r.err }

// Err returns the failure, or nil.
func (r Result[T]) Err() error { return r.err }

// Error is a failure annotated with the operation and source location that
// produced it.
type Error struct {
	Op       string
	Location string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v, @ %s", e.Op, e.Err, e.Location)
}

func (e *Error) Unwrap() error { return e.Err }

// failure builds an *Error carrying the caller's file and line.
func failure(op string, err error) *Error {
	loc := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		loc = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return &Error{Op: op, Location: loc, Err: err}
}
