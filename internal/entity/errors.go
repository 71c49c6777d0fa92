package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
)

var (
	// ErrNotFound indicates that a referenced local or global record is absent.
	ErrNotFound = errors.New("record not found")
	// ErrValidation indicates a missing or malformed field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPartialReplication indicates that a multi-step write stopped after some steps succeeded.
	ErrPartialReplication = errors.New("partial replication failure")
	// ErrOrphanRecord indicates a broken cross-reference between copies.
	ErrOrphanRecord = errors.New("orphan record")
	// ErrPermissionDenied indicates that the store rejected a write.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNoSeats indicates that a class has no free seat left.
	ErrNoSeats = errors.New("no seats available")
)

// ValidationError lists the offending fields. It matches ErrValidation.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := "validation failed"
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ReplicationError reports which step of a multi-step write failed.
// It matches ErrPartialReplication when at least one earlier step succeeded.
type ReplicationError struct {
	Op        string
	Step      string
	Completed []string
	Err       error
}

func (e *ReplicationError) Error() string {
	if len(e.Completed) == 0 {
		return fmt.Sprintf("%s: step %s: %v", e.Op, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: step %s failed after [%s]: %v", e.Op, e.Step, strings.Join(e.Completed, " "), e.Err)
}

func (e *ReplicationError) Unwrap() error { return e.Err }

func (e *ReplicationError) Is(target error) bool {
	return target == ErrPartialReplication && len(e.Completed) > 0
}

// OrphanError describes a copy whose counterpart cannot be resolved.
type OrphanError struct {
	Path    string
	Missing string
}

func (e *OrphanError) Error() string {
	return fmt.Sprintf("orphan record %s: counterpart %s unresolved", e.Path, e.Missing)
}

func (e *OrphanError) Is(target error) bool { return target == ErrOrphanRecord }

// NotFoundError names the absent path. It matches ErrNotFound.
func NotFoundError(path string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, path)
}

// IsRetryable reports whether re-issuing the whole operation may succeed.
// Every writer sequence is idempotent, so partial failures are retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidTransition) || IsPermissionDenied(err) {
		return false
	}
	return store.IsTransient(err) || errors.Is(err, ErrPartialReplication)
}

// IsPermissionDenied matches both the domain and the store flavour.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied) || errors.Is(err, store.ErrPermissionDenied)
}
