package store

import (
	"context"
)

// Value is the record stored at a single path. Values are flat: nested records
// live at their own child paths.
type Value map[string]interface{}

// Clone returns a shallow copy of v. Nil stays nil.
func (v Value) Clone() Value {
	if v == nil {
		return nil
	}
	out := make(Value, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Snapshot is what a subscriber sees after a change.
type Snapshot struct {
	Path   string
	Value  Value
	Exists bool
	// Rev orders snapshots of one store. Zero means the backend cannot order them.
	Rev uint64
}

// Unsubscribe stops a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// Client is the hierarchical key-value store every component writes through.
// No call is atomic with any other call.
type Client interface {
	// ReadOnce returns the record at path and whether it exists.
	ReadOnce(ctx context.Context, path string) (Value, bool, error)
	// Children returns the records directly below path keyed by their last segment.
	Children(ctx context.Context, path string) (map[string]Value, error)
	// WriteAll replaces the record at path. Child records are not touched.
	WriteAll(ctx context.Context, path string, value Value) error
	// UpdateFields merges fields into the record at path, creating it if absent.
	UpdateFields(ctx context.Context, path string, fields Value) error
	// AppendChild allocates a new child key under path. A seed makes the key
	// deterministic so that a retried sequence lands on the same key.
	AppendChild(ctx context.Context, path string, seed ...string) (string, error)
	// RemoveSubtree deletes path and everything below it. Absent paths are a no-op.
	RemoveSubtree(ctx context.Context, path string) error
	// Subscribe calls onChange with the current value of path and again after
	// every change to path or its descendants. Deletion is delivered as a
	// snapshot with Exists == false. onChange must not block.
	Subscribe(ctx context.Context, path string, onChange func(Snapshot)) (Unsubscribe, error)
}
