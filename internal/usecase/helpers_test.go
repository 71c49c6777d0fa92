package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/memory"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

var errInjected = errors.New("injected failure")

// faultStore fails calls matching a rule, a limited number of times.
type faultStore struct {
	store.Client

	mu    sync.Mutex
	rules []*faultRule
}

type faultRule struct {
	op     string
	prefix string
	times  int
	err    error
}

func newFaultStore(next store.Client) *faultStore {
	return &faultStore{Client: next}
}

// failOn makes the next times calls of op on paths starting with prefix fail.
func (f *faultStore) failOn(op, prefix string, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &faultRule{op: op, prefix: prefix, times: times, err: errInjected})
}

func (f *faultStore) fault(op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if r.op == op && strings.HasPrefix(path, r.prefix) && r.times > 0 {
			r.times--
			return &store.OpError{Op: op, Path: path, Err: r.err}
		}
	}
	return nil
}

func (f *faultStore) ReadOnce(ctx context.Context, path string) (store.Value, bool, error) {
	if err := f.fault("read", path); err != nil {
		return nil, false, err
	}
	return f.Client.ReadOnce(ctx, path)
}

func (f *faultStore) WriteAll(ctx context.Context, path string, v store.Value) error {
	if err := f.fault("write", path); err != nil {
		return err
	}
	return f.Client.WriteAll(ctx, path, v)
}

func (f *faultStore) UpdateFields(ctx context.Context, path string, v store.Value) error {
	if err := f.fault("update", path); err != nil {
		return err
	}
	return f.Client.UpdateFields(ctx, path, v)
}

func (f *faultStore) RemoveSubtree(ctx context.Context, path string) error {
	if err := f.fault("remove", path); err != nil {
		return err
	}
	return f.Client.RemoveSubtree(ctx, path)
}

type testEnv struct {
	mem        *memory.Store
	store      *faultStore
	listings   *ListingUsecase
	aggregates *AggregateUsecase
	posts      *PostUsecase
	reconciler *ReconcileUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := memory.New()
	fs := newFaultStore(mem)
	log := logger.NewNop()
	agg := NewAggregateUsecase(fs, nil, nil, log)
	return &testEnv{
		mem:        mem,
		store:      fs,
		listings:   NewListingUsecase(fs, nil, nil, log),
		aggregates: agg,
		posts:      NewPostUsecase(fs, agg, nil, nil, log),
		reconciler: NewReconcileUsecase(fs, agg, nil, log),
	}
}

func (e *testEnv) read(t *testing.T, path string) (store.Value, bool) {
	t.Helper()
	v, ok, err := e.mem.ReadOnce(context.Background(), path)
	require.NoError(t, err)
	return v, ok
}

func (e *testEnv) listing(t *testing.T, path string) entity.Listing {
	t.Helper()
	v, ok := e.read(t, path)
	require.True(t, ok, "missing %s", path)
	return entity.ListingFromValue(store.Base(path), v)
}

func streetDance() ListingInput {
	return ListingInput{
		Title:          "Street Dance Basics",
		Category:       "Hip-Hop",
		AvailableSeats: 10,
		Description:    "intro class",
	}
}

// publish creates a draft for U1 and publishes it.
func (e *testEnv) publish(t *testing.T) entity.Listing {
	t.Helper()
	ctx := context.Background()
	draft, err := e.listings.CreateDraft(ctx, "U1", streetDance())
	require.NoError(t, err)
	mirror, err := e.listings.PublishDraft(ctx, "U1", draft.ID)
	require.NoError(t, err)
	return mirror
}
