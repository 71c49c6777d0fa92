package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/memory"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/schema"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func next(t *testing.T, s *Stream) Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func nextCollection(t *testing.T, s *CollectionStream) CollectionEvent {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for event")
	}
	return CollectionEvent{}
}

func closed(t *testing.T, s *Stream) {
	t.Helper()
	select {
	case _, ok := <-s.Events():
		assert.False(t, ok)
	case <-time.After(waitFor):
		t.Fatal("stream not closed")
	}
}

func TestManager_FanOut(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	log := logger.NewNop()
	listings := usecase.NewListingUsecase(st, nil, nil, log)
	mirror, err := listings.CreateListing(ctx, "U1", usecase.ListingInput{
		Title:          "Street Dance Basics",
		Category:       "Hip-Hop",
		AvailableSeats: 10,
	})
	require.NoError(t, err)
	globalPath := schema.RegistryEntry(mirror.GlobalID)
	m := NewManager(st, log)

	a, err := m.Open(ctx, globalPath)
	require.NoError(t, err)
	b, err := m.Open(ctx, globalPath)
	require.NoError(t, err)
	assert.NotEqual(t, a.Token(), b.Token())
	assert.Equal(t, 2, m.Active())

	for _, s := range []*Stream{a, b} {
		ev := next(t, s)
		assert.Equal(t, KindValue, ev.Kind)
		assert.Equal(t, string(entity.StatusPending), ev.Value.GetString(entity.FieldStatus))
	}

	_, err = listings.SetStatus(ctx, mirror.GlobalID, entity.StatusRejected)
	require.NoError(t, err)

	var revs []uint64
	for _, s := range []*Stream{a, b} {
		ev := next(t, s)
		assert.Equal(t, string(entity.StatusRejected), ev.Value.GetString(entity.FieldStatus))
		revs = append(revs, ev.Rev)
	}
	assert.Equal(t, revs[0], revs[1], "every subscriber sees the same revision")

	a.Close()
	b.Close()
	assert.Equal(t, 0, m.Active())
}

func TestManager_DeletionIsNotFound(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.WriteAll(ctx, "owners/U1/published/m1", store.Value{"globalId": "g1"}))
	m := NewManager(st, logger.NewNop())

	s, err := m.Open(ctx, "owners/U1/published/m1")
	require.NoError(t, err)
	assert.Equal(t, KindValue, next(t, s).Kind)

	require.NoError(t, st.RemoveSubtree(ctx, "owners/U1"))
	ev := next(t, s)
	assert.Equal(t, KindNotFound, ev.Kind)
	assert.Nil(t, ev.Value)

	// Closing after deletion, repeatedly, and through the manager is safe.
	s.Close()
	s.Close()
	m.Close(s.Token())
	closed(t, s)
	assert.Equal(t, 0, m.Active())
}

func TestManager_OpenAbsentPath(t *testing.T) {
	m := NewManager(memory.New(), logger.NewNop())
	s, err := m.Open(context.Background(), "registry/missing")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, KindNotFound, next(t, s).Kind)
}

func TestManager_ContextClosesStream(t *testing.T) {
	m := NewManager(memory.New(), logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	s, err := m.Open(ctx, "registry/g1")
	require.NoError(t, err)
	next(t, s)

	cancel()
	closed(t, s)
	assert.Eventually(t, func() bool { return m.Active() == 0 }, waitFor, 10*time.Millisecond)
}

func TestManager_SlowConsumerDoesNotBlockWriter(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := NewManager(st, logger.NewNop())
	s, err := m.Open(ctx, "posts/p1")
	require.NoError(t, err)
	defer s.Close()

	for i := 1; i <= 100; i++ {
		require.NoError(t, st.UpdateFields(ctx, "posts/p1", store.Value{"n": i}))
	}

	assert.Equal(t, KindNotFound, next(t, s).Kind)
	last := 0
	for last < 100 {
		ev := next(t, s)
		n := ev.Value.GetInt("n")
		assert.Greater(t, n, last)
		last = n
	}
}

func TestManager_Collection(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.WriteAll(ctx, "owners/U1/drafts/d1", store.Value{"title": "a"}))
	m := NewManager(st, logger.NewNop())

	s, err := m.OpenCollection(ctx, "owners/U1/drafts")
	require.NoError(t, err)
	defer s.Close()

	ev := nextCollection(t, s)
	require.NoError(t, ev.Err)
	assert.Len(t, ev.Items, 1)

	require.NoError(t, st.WriteAll(ctx, "owners/U1/drafts/d2", store.Value{"title": "b"}))
	assert.Eventually(t, func() bool {
		select {
		case ev := <-s.Events():
			return len(ev.Items) == 2
		default:
			return false
		}
	}, waitFor, 5*time.Millisecond)

	m.CloseAll()
	assert.Equal(t, 0, m.Active())
}

func TestManager_InvalidPath(t *testing.T) {
	m := NewManager(memory.New(), logger.NewNop())
	_, err := m.Open(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrInvalidPath)
	assert.Equal(t, 0, m.Active())
}
