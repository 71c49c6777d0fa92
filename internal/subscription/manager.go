// Package subscription multiplexes live store changes to any number of
// independent observers. Every Open yields its own stream; deletions arrive
// as NotFound events, never as errors.
package subscription

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"go.uber.org/zap"
)

// Kind says what an Event carries.
type Kind int

const (
	KindValue Kind = iota
	KindNotFound
)

func (k Kind) String() string {
	if k == KindNotFound {
		return "not_found"
	}
	return "value"
}

// Event is one observed state of a single path.
type Event struct {
	Path  string
	Kind  Kind
	Value store.Value
	Rev   uint64
}

// CollectionEvent is the full set of records directly below a path.
// Err is set when the re-read after a change failed; the stream stays open.
type CollectionEvent struct {
	Path  string
	Items map[string]store.Value
	Err   error
}

// Token identifies an open stream.
type Token uint64

type closer interface{ Close() }

// Manager opens and tracks streams over one store client.
type Manager struct {
	client store.Client
	log    *logger.Logger

	mu      sync.Mutex
	streams map[Token]closer
	next    Token
	active  atomic.Int64
}

func NewManager(client store.Client, log *logger.Logger) *Manager {
	return &Manager{
		client:  client,
		log:     log.Named("SubscriptionManager"),
		streams: make(map[Token]closer),
	}
}

// Stream delivers Events for one path in store order.
type Stream struct {
	token  Token
	path   string
	events chan Event
	q      *queue[Event]
	done   chan struct{}
	once   sync.Once
	unsub  store.Unsubscribe
	mgr    *Manager
}

func (s *Stream) Token() Token { return s.token }

func (s *Stream) Path() string { return s.path }

// Events is closed when the stream closes.
func (s *Stream) Events() <-chan Event { return s.events }

// Close stops delivery and closes the Events channel. It is safe to call
// more than once and after the path was deleted.
func (s *Stream) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.unsub != nil {
			s.unsub()
		}
		s.mgr.forget(s.token)
	})
}

// Open starts a value stream on path. The first event is the current state.
// The stream closes when ctx is done or Close is called.
func (m *Manager) Open(ctx context.Context, path string) (*Stream, error) {
	if err := store.ValidatePath(path); err != nil {
		return nil, err
	}
	s := &Stream{
		path:   path,
		events: make(chan Event),
		q:      newQueue[Event](),
		done:   make(chan struct{}),
		mgr:    m,
	}
	go s.run()

	unsub, err := m.client.Subscribe(ctx, path, func(snap store.Snapshot) {
		s.q.push(toEvent(snap))
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}
	s.unsub = unsub
	s.token = m.track(s)
	go closeOnDone(ctx, s.done, s.Close)

	m.log.Debug("stream opened", zap.String("path", path), zap.Uint64("token", uint64(s.token)))
	return s, nil
}

func (s *Stream) run() {
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case <-s.q.ready:
		}
		for _, ev := range s.q.drain() {
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// CollectionStream delivers the children of a path after every change below it.
// Bursts of changes are coalesced into one re-read.
type CollectionStream struct {
	token  Token
	path   string
	events chan CollectionEvent
	ready  chan struct{}
	done   chan struct{}
	once   sync.Once
	unsub  store.Unsubscribe
	mgr    *Manager
}

func (s *CollectionStream) Token() Token { return s.token }

func (s *CollectionStream) Path() string { return s.path }

func (s *CollectionStream) Events() <-chan CollectionEvent { return s.events }

func (s *CollectionStream) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.unsub != nil {
			s.unsub()
		}
		s.mgr.forget(s.token)
	})
}

// OpenCollection starts a collection stream on path.
func (m *Manager) OpenCollection(ctx context.Context, path string) (*CollectionStream, error) {
	if err := store.ValidatePath(path); err != nil {
		return nil, err
	}
	s := &CollectionStream{
		path:   path,
		events: make(chan CollectionEvent),
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
		mgr:    m,
	}
	go s.run(context.WithoutCancel(ctx))

	unsub, err := m.client.Subscribe(ctx, path, func(store.Snapshot) {
		select {
		case s.ready <- struct{}{}:
		default:
		}
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}
	s.unsub = unsub
	s.token = m.track(s)
	go closeOnDone(ctx, s.done, s.Close)

	m.log.Debug("collection stream opened", zap.String("path", path), zap.Uint64("token", uint64(s.token)))
	return s, nil
}

func (s *CollectionStream) run(ctx context.Context) {
	defer close(s.events)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-s.done
		cancel()
	}()
	for {
		select {
		case <-s.done:
			return
		case <-s.ready:
		}
		items, err := s.mgr.client.Children(ctx, s.path)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.mgr.log.Warn("collection re-read failed", zap.String("path", s.path), zap.Error(err))
		}
		ev := CollectionEvent{Path: s.path, Items: items, Err: err}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// Close closes the stream identified by token. Unknown or already closed
// tokens are ignored.
func (m *Manager) Close(token Token) {
	m.mu.Lock()
	c, ok := m.streams[token]
	m.mu.Unlock()
	if ok {
		c.Close()
	}
}

// CloseAll closes every open stream.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	open := make([]closer, 0, len(m.streams))
	for _, c := range m.streams {
		open = append(open, c)
	}
	m.mu.Unlock()
	for _, c := range open {
		c.Close()
	}
}

// Active returns the number of open streams.
func (m *Manager) Active() int {
	return int(m.active.Load())
}

func (m *Manager) track(c closer) Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.streams[m.next] = c
	m.active.Add(1)
	return m.next
}

func (m *Manager) forget(token Token) {
	m.mu.Lock()
	_, ok := m.streams[token]
	delete(m.streams, token)
	m.mu.Unlock()
	if ok {
		m.active.Add(-1)
		m.log.Debug("stream closed", zap.Uint64("token", uint64(token)))
	}
}

func closeOnDone(ctx context.Context, done <-chan struct{}, closeFn func()) {
	select {
	case <-ctx.Done():
		closeFn()
	case <-done:
	}
}

func toEvent(snap store.Snapshot) Event {
	if !snap.Exists {
		return Event{Path: snap.Path, Kind: KindNotFound, Rev: snap.Rev}
	}
	return Event{Path: snap.Path, Kind: KindValue, Value: snap.Value, Rev: snap.Rev}
}
