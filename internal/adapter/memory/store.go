// Package memory is an in-process hierarchical store with push notifications.
// It backs the embedded mode of the service and every package test.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
)

// Store keeps one flat record per path. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	records map[string]store.Value
	rev     uint64
	subs    map[uint64]*subscriber
	nextSub uint64
}

var _ store.Client = (*Store)(nil)

func New() *Store {
	return &Store{
		records: make(map[string]store.Value),
		subs:    make(map[uint64]*subscriber),
	}
}

type subscriber struct {
	path     string
	onChange func(store.Snapshot)

	mu      sync.Mutex
	lastRev uint64
	closed  bool
}

// deliver drops snapshots older than the last one seen, so concurrent
// writers can never make a subscriber go back in time.
func (s *subscriber) deliver(snap store.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || snap.Rev <= s.lastRev {
		return
	}
	s.lastRev = snap.Rev
	s.onChange(snap)
}

type pending struct {
	sub  *subscriber
	snap store.Snapshot
}

func (s *Store) ReadOnce(ctx context.Context, path string) (store.Value, bool, error) {
	if err := check(ctx, "read", path); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[path]
	if !ok {
		return nil, false, nil
	}
	return cloneValue(v), true, nil
}

func (s *Store) Children(ctx context.Context, path string) (map[string]store.Value, error) {
	if err := check(ctx, "children", path); err != nil {
		return nil, err
	}
	prefix := path + store.Separator
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]store.Value)
	for p, v := range s.records {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := p[len(prefix):]
		if strings.Contains(rest, store.Separator) {
			continue
		}
		out[rest] = cloneValue(v)
	}
	return out, nil
}

func (s *Store) WriteAll(ctx context.Context, path string, value store.Value) error {
	if err := check(ctx, "write", path); err != nil {
		return err
	}
	if err := store.ValidateValue(value); err != nil {
		return &store.OpError{Op: "write", Path: path, Err: err}
	}
	s.mu.Lock()
	s.records[path] = cloneValue(value)
	if s.records[path] == nil {
		s.records[path] = store.Value{}
	}
	notes := s.changedLocked(path, false)
	s.mu.Unlock()
	notify(notes)
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, path string, fields store.Value) error {
	if err := check(ctx, "update", path); err != nil {
		return err
	}
	if err := store.ValidateValue(fields); err != nil {
		return &store.OpError{Op: "update", Path: path, Err: err}
	}
	s.mu.Lock()
	rec, ok := s.records[path]
	if !ok {
		rec = store.Value{}
		s.records[path] = rec
	}
	for k, v := range cloneValue(fields) {
		rec[k] = v
	}
	notes := s.changedLocked(path, false)
	s.mu.Unlock()
	notify(notes)
	return nil
}

// AppendChild only allocates the key. The record appears with the next write.
func (s *Store) AppendChild(ctx context.Context, path string, seed ...string) (string, error) {
	if err := check(ctx, "append", path); err != nil {
		return "", err
	}
	return store.NewKey(path, seed...), nil
}

func (s *Store) RemoveSubtree(ctx context.Context, path string) error {
	if err := check(ctx, "remove", path); err != nil {
		return err
	}
	prefix := path + store.Separator
	s.mu.Lock()
	removed := false
	for p := range s.records {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(s.records, p)
			removed = true
		}
	}
	var notes []pending
	if removed {
		notes = s.changedLocked(path, true)
	}
	s.mu.Unlock()
	notify(notes)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, path string, onChange func(store.Snapshot)) (store.Unsubscribe, error) {
	if err := check(ctx, "subscribe", path); err != nil {
		return nil, err
	}
	sub := &subscriber{path: path, onChange: onChange}

	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = sub
	s.rev++
	initial := s.snapshotLocked(path)
	s.mu.Unlock()

	sub.deliver(initial)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()
		})
	}, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Paths returns every stored path below prefix, or all paths for "".
func (s *Store) Paths(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for p := range s.records {
		if prefix == "" || store.IsWithin(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

// changedLocked bumps the revision and collects a snapshot for every
// subscriber that observes path: the path itself, its ancestors, and on
// removal everything below it.
func (s *Store) changedLocked(path string, removal bool) []pending {
	s.rev++
	var notes []pending
	for _, sub := range s.subs {
		if store.IsWithin(path, sub.path) || (removal && store.IsWithin(sub.path, path)) {
			notes = append(notes, pending{sub: sub, snap: s.snapshotLocked(sub.path)})
		}
	}
	return notes
}

func (s *Store) snapshotLocked(path string) store.Snapshot {
	v, ok := s.records[path]
	return store.Snapshot{Path: path, Value: cloneValue(v), Exists: ok, Rev: s.rev}
}

func notify(notes []pending) {
	for _, n := range notes {
		n.sub.deliver(n.snap)
	}
}

func check(ctx context.Context, op, path string) error {
	if err := ctx.Err(); err != nil {
		return store.ContextError(op, path, err)
	}
	if err := store.ValidatePath(path); err != nil {
		return &store.OpError{Op: op, Path: path, Err: err}
	}
	return nil
}

func cloneValue(v store.Value) store.Value {
	if v == nil {
		return nil
	}
	out := make(store.Value, len(v))
	for k, val := range v {
		out[k] = cloneAny(val)
	}
	return out
}

func cloneAny(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = cloneAny(val)
		}
		return m
	case store.Value:
		return cloneValue(t)
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, val := range t {
			s[i] = cloneAny(val)
		}
		return s
	}
	return v
}
