package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidPath      = errors.New("store: invalid path")
	ErrInvalidValue     = errors.New("store: invalid value")
	ErrTimeout          = errors.New("store: operation timed out")
	ErrUnavailable      = errors.New("store: backend unavailable")
	ErrPermissionDenied = errors.New("store: permission denied")
)

// OpError describes a failed store call.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// ContextError maps context errors to store errors. Deadline expiry becomes
// ErrTimeout so callers can treat it as retryable.
func ContextError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &OpError{Op: op, Path: path, Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
	}
	return &OpError{Op: op, Path: path, Err: err}
}

// IsTransient reports whether err is worth retrying unchanged.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}
