//go:build integration

package mongo_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	mongoStore "github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/mongo"
	natsAdapter "github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/schema"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/subscription"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/usecase"
	"github.com/nats-io/nats.go"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	testDBClient *mongo.Client
	testNatsConn *nats.Conn
	testLogger   = logger.NewNop()
)

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}
	hostConfig := func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	}

	mongoResource, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: "mongo", Tag: "6.0"}, hostConfig)
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}
	natsResource, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: "nats", Tag: "2.10"}, hostConfig)
	if err != nil {
		log.Fatalf("Could not start NATS resource: %s", err)
	}

	mongoCfg := &config.MongoConfig{
		URI:            fmt.Sprintf("mongodb://%s", mongoResource.GetHostPort("27017/tcp")),
		ConnectTimeout: 5 * time.Second,
	}
	if err := pool.Retry(func() error {
		var errRetry error
		testDBClient, errRetry = mongoStore.NewMongoDBConnection(mongoCfg)
		return errRetry
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}
	natsCfg := config.NATSConfig{URL: fmt.Sprintf("nats://%s", natsResource.GetHostPort("4222/tcp"))}
	if err := pool.Retry(func() error {
		var errRetry error
		testNatsConn, errRetry = natsAdapter.Connect(natsCfg, testLogger, "class-service-integration")
		return errRetry
	}); err != nil {
		log.Fatalf("Could not connect to NATS: %s", err)
	}

	code := m.Run()

	natsAdapter.Close(testNatsConn, testLogger)
	_ = testDBClient.Disconnect(context.Background())
	for _, r := range []*dockertest.Resource{mongoResource, natsResource} {
		if err := pool.Purge(r); err != nil {
			log.Printf("Could not purge resource: %s", err)
		}
	}
	os.Exit(code)
}

func newStore(t *testing.T) *mongoStore.Store {
	t.Helper()
	ctx := context.Background()
	db := testDBClient.Database(fmt.Sprintf("class_it_%d", time.Now().UnixNano()))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	feed := natsAdapter.NewChangeFeed(testNatsConn, fmt.Sprintf("it%d", time.Now().UnixNano()), testLogger)
	s, err := mongoStore.NewStore(ctx, db, "", feed, testLogger)
	require.NoError(t, err)
	return s
}

func TestStore_ReadWriteUpdateRemove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.WriteAll(ctx, "registry/g1", store.Value{"title": "Yoga", "availableSeats": 10}))
	require.NoError(t, s.UpdateFields(ctx, "registry/g1", store.Value{"status": "pending"}))
	v, ok, err := s.ReadOnce(ctx, "registry/g1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Yoga", v.GetString("title"))
	assert.Equal(t, 10, v.GetInt("availableSeats"))
	assert.Equal(t, "pending", v.GetString("status"))

	require.NoError(t, s.UpdateFields(ctx, "registry/g2", store.Value{"title": "Upserted"}))
	children, err := s.Children(ctx, "registry")
	require.NoError(t, err)
	assert.Len(t, children, 2)
	assert.Equal(t, "Upserted", children["g2"].GetString("title"))

	require.NoError(t, s.WriteAll(ctx, "reviews/g1/r1", store.Value{"rating": 5}))
	require.NoError(t, s.RemoveSubtree(ctx, "reviews/g1"))
	require.NoError(t, s.RemoveSubtree(ctx, "reviews/g1"))
	_, ok, err = s.ReadOnce(ctx, "reviews/g1/r1")
	require.NoError(t, err)
	assert.False(t, ok)

	// A sibling sharing the prefix survives.
	require.NoError(t, s.WriteAll(ctx, "registry/g10", store.Value{"title": "Other"}))
	require.NoError(t, s.RemoveSubtree(ctx, "registry/g1"))
	_, ok, err = s.ReadOnce(ctx, "registry/g10")
	require.NoError(t, err)
	assert.True(t, ok)

	err = s.WriteAll(ctx, "registry//x", store.Value{})
	assert.ErrorIs(t, err, store.ErrInvalidPath)
	err = s.WriteAll(ctx, "registry/x", store.Value{"a.b": 1})
	assert.ErrorIs(t, err, store.ErrInvalidValue)
}

func TestStore_SubscribeDeliversChangesAndDeletion(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	manager := subscription.NewManager(s, testLogger)
	defer manager.CloseAll()

	stream, err := manager.Open(ctx, "registry/g1")
	require.NoError(t, err)

	next := func() subscription.Event {
		select {
		case ev := <-stream.Events():
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("no event")
			return subscription.Event{}
		}
	}
	assert.Equal(t, subscription.KindNotFound, next().Kind)

	require.NoError(t, s.WriteAll(ctx, "registry/g1", store.Value{"status": "pending"}))
	ev := next()
	require.Equal(t, subscription.KindValue, ev.Kind)
	assert.Equal(t, "pending", ev.Value.GetString("status"))

	require.NoError(t, s.UpdateFields(ctx, "registry/g1", store.Value{"status": "rejected"}))
	assert.Equal(t, "rejected", next().Value.GetString("status"))

	require.NoError(t, s.RemoveSubtree(ctx, "registry"))
	assert.Equal(t, subscription.KindNotFound, next().Kind)
	stream.Close()
	stream.Close()
}

func TestStore_PublishScenario(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	listings := usecase.NewListingUsecase(s, nil, nil, testLogger)

	draft, err := listings.CreateDraft(ctx, "U1", usecase.ListingInput{
		Title: "Street Dance Basics", Category: "Hip-Hop", AvailableSeats: 10, Description: "intro class",
	})
	require.NoError(t, err)
	mirror, err := listings.PublishDraft(ctx, "U1", draft.ID)
	require.NoError(t, err)

	v, ok, err := s.ReadOnce(ctx, schema.RegistryEntry(mirror.GlobalID))
	require.NoError(t, err)
	require.True(t, ok)
	global := entity.ListingFromValue(mirror.GlobalID, v)
	assert.Equal(t, entity.StatusPending, global.Status)
	assert.Equal(t, mirror.ID, global.OwnerLocalID)
	assert.Equal(t, 10, global.AvailableSeats)

	_, ok, err = s.ReadOnce(ctx, schema.OwnerDraft("U1", draft.ID))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = listings.DeleteListing(ctx, "U1", mirror.ID)
	require.NoError(t, err)
	children, err := s.Children(ctx, schema.Registry())
	require.NoError(t, err)
	assert.Empty(t, children)
}
