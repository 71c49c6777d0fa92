package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	defaultCollectionName = "nodes"
	refreshTimeout        = 5 * time.Second

	codeUnauthorized = 13
	codeForbidden    = 8000 // Atlas "user is not allowed to do action"
)

// ChangeFeed carries change notifications between service instances sharing
// one database. Publish announces that path changed; Watch calls fn whenever
// path, one of its descendants, or one of its ancestors changes.
type ChangeFeed interface {
	Publish(ctx context.Context, path string) error
	Watch(path string, fn func(changed string)) (stop func(), err error)
}

// Store is a store.Client over one MongoDB collection holding a document per
// record path.
type Store struct {
	coll *mongo.Collection
	feed ChangeFeed
	log  *logger.Logger
	rev  atomic.Uint64
}

type nodeDocument struct {
	Path      string             `bson:"_id"`
	Parent    string             `bson:"parent"`
	Value     bson.M             `bson:"value"`
	UpdatedAt primitive.DateTime `bson:"updated_at"`
}

// NewStore prepares the collection and its parent index.
func NewStore(ctx context.Context, db *mongo.Database, collection string, feed ChangeFeed, log *logger.Logger) (*Store, error) {
	if collection == "" {
		collection = defaultCollectionName
	}
	coll := db.Collection(collection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "parent", Value: 1}},
		Options: options.Index().SetName("parent_1"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create parent index on %s: %w", collection, err)
	}
	return &Store{coll: coll, feed: feed, log: log.Named("MongoStore")}, nil
}

func (s *Store) ReadOnce(ctx context.Context, path string) (store.Value, bool, error) {
	if err := validate(path); err != nil {
		return nil, false, &store.OpError{Op: "read", Path: path, Err: err}
	}
	var doc nodeDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, mapError(ctx, "read", path, err)
	}
	return toValue(doc.Value), true, nil
}

func (s *Store) Children(ctx context.Context, path string) (map[string]store.Value, error) {
	if err := validate(path); err != nil {
		return nil, &store.OpError{Op: "children", Path: path, Err: err}
	}
	cursor, err := s.coll.Find(ctx, bson.M{"parent": path})
	if err != nil {
		return nil, mapError(ctx, "children", path, err)
	}
	defer cursor.Close(ctx)

	var docs []nodeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapError(ctx, "children", path, err)
	}
	out := make(map[string]store.Value, len(docs))
	for _, doc := range docs {
		out[store.Base(doc.Path)] = toValue(doc.Value)
	}
	return out, nil
}

func (s *Store) WriteAll(ctx context.Context, path string, value store.Value) error {
	if err := validate(path); err != nil {
		return &store.OpError{Op: "write", Path: path, Err: err}
	}
	if err := store.ValidateValue(value); err != nil {
		return &store.OpError{Op: "write", Path: path, Err: err}
	}
	doc := nodeDocument{
		Path:      path,
		Parent:    store.Parent(path),
		Value:     bson.M(value.Clone()),
		UpdatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if doc.Value == nil {
		doc.Value = bson.M{}
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": path}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return mapError(ctx, "write", path, err)
	}
	s.announce(ctx, path)
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, path string, fields store.Value) error {
	if err := validate(path); err != nil {
		return &store.OpError{Op: "update", Path: path, Err: err}
	}
	if err := store.ValidateValue(fields); err != nil {
		return &store.OpError{Op: "update", Path: path, Err: err}
	}
	set := bson.M{"updated_at": primitive.NewDateTimeFromTime(time.Now())}
	for k, v := range fields {
		set["value."+k] = v
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"parent": store.Parent(path)},
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": path}, update, options.Update().SetUpsert(true))
	if err != nil {
		return mapError(ctx, "update", path, err)
	}
	s.announce(ctx, path)
	return nil
}

// AppendChild only allocates the key; the record appears with the first write.
func (s *Store) AppendChild(ctx context.Context, path string, seed ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", store.ContextError("append", path, err)
	}
	if err := validate(path); err != nil {
		return "", &store.OpError{Op: "append", Path: path, Err: err}
	}
	return store.NewKey(path, seed...), nil
}

func (s *Store) RemoveSubtree(ctx context.Context, path string) error {
	if err := validate(path); err != nil {
		return &store.OpError{Op: "remove", Path: path, Err: err}
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"_id": path},
		bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(path+store.Separator)}},
	}}
	res, err := s.coll.DeleteMany(ctx, filter)
	if err != nil {
		return mapError(ctx, "remove", path, err)
	}
	if res.DeletedCount > 0 {
		s.announce(ctx, path)
	}
	return nil
}

// Subscribe delivers the current value, then re-reads path after every
// relayed change. Deliveries to one subscriber are serialized.
func (s *Store) Subscribe(ctx context.Context, path string, onChange func(store.Snapshot)) (store.Unsubscribe, error) {
	if err := validate(path); err != nil {
		return nil, &store.OpError{Op: "subscribe", Path: path, Err: err}
	}
	if s.feed == nil {
		return nil, &store.OpError{Op: "subscribe", Path: path, Err: fmt.Errorf("%w: no change feed configured", store.ErrUnavailable)}
	}
	sub := &subscriber{path: path, onChange: onChange}
	stop, err := s.feed.Watch(path, func(string) { s.refresh(sub) })
	if err != nil {
		return nil, &store.OpError{Op: "subscribe", Path: path, Err: fmt.Errorf("%w: %v", store.ErrUnavailable, err)}
	}
	s.refresh(sub)

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()
			stop()
		})
	}, nil
}

type subscriber struct {
	mu       sync.Mutex
	path     string
	onChange func(store.Snapshot)
	closed   bool
}

func (s *Store) refresh(sub *subscriber) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	v, ok, err := s.ReadOnce(ctx, sub.path)
	if err != nil {
		s.log.Warn("Failed to refresh subscription", zap.String("path", sub.path), zap.Error(err))
		return
	}
	sub.onChange(store.Snapshot{Path: sub.path, Value: v, Exists: ok, Rev: s.rev.Add(1)})
}

// announce relays a committed change. The write already succeeded, so a
// relay failure only delays subscribers.
func (s *Store) announce(ctx context.Context, path string) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, path); err != nil {
		s.log.Warn("Failed to publish change notification", zap.String("path", path), zap.Error(err))
	}
}

func validate(path string) error {
	return store.ValidatePath(path)
}

func toValue(m bson.M) store.Value {
	if m == nil {
		return store.Value{}
	}
	return store.Value(m)
}

// mapError turns driver errors into the store's error kinds.
func mapError(ctx context.Context, op, path string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		cause := ctx.Err()
		if cause == nil {
			cause = context.DeadlineExceeded
		}
		return store.ContextError(op, path, cause)
	}
	switch {
	case mongo.IsTimeout(err):
		return &store.OpError{Op: op, Path: path, Err: fmt.Errorf("%w: %v", store.ErrTimeout, err)}
	case mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		return &store.OpError{Op: op, Path: path, Err: fmt.Errorf("%w: %v", store.ErrUnavailable, err)}
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && (serverErr.HasErrorCode(codeUnauthorized) || serverErr.HasErrorCode(codeForbidden)) {
		return &store.OpError{Op: op, Path: path, Err: fmt.Errorf("%w: %v", store.ErrPermissionDenied, err)}
	}
	return &store.OpError{Op: op, Path: path, Err: err}
}
