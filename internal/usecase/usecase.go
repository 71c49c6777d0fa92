package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/Abdurahmanit/GroupProject/class-service/internal/usecase")

// Event subjects published after successful writes.
const (
	SubjectListingCreated       = "listing.created"
	SubjectListingPublished     = "listing.published"
	SubjectListingUpdated       = "listing.updated"
	SubjectListingStatusChanged = "listing.status_changed"
	SubjectListingDeleted       = "listing.deleted"
	SubjectPostCreated          = "post.created"
	SubjectPostDeleted          = "post.deleted"
	SubjectCommentAdded         = "comment.added"
	SubjectReviewAdded          = "review.added"
	SubjectEnrollmentAdded      = "enrollment.added"
)

// EventPublisher sends domain events. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type base struct {
	client  store.Client
	events  EventPublisher
	metrics *metrics.MetricsManager
	log     *logger.Logger
	now     func() time.Time
}

func newBase(client store.Client, events EventPublisher, m *metrics.MetricsManager, log *logger.Logger, name string) base {
	return base{
		client:  client,
		events:  events,
		metrics: m,
		log:     log.Named(name),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// operation tracks one multi-step write: its span, its metrics and the steps
// that already succeeded.
type operation struct {
	b       *base
	name    string
	span    trace.Span
	started time.Time
	done    []string
}

// begin starts op. The returned context is detached from the caller's
// cancellation: a torn-down request must not strand a half-written sequence.
// Each store call is still bounded by the client's own timeout.
func (b *base) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, *operation) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	return ctx, &operation{b: b, name: op, span: span, started: time.Now()}
}

// step runs fn as the named step. A failure is reported together with the
// steps that already completed.
func (o *operation) step(name string, fn func() error) error {
	o.b.log.Debug("step", zap.String("operation", o.name), zap.String("step", name))
	if err := fn(); err != nil {
		completed := make([]string, len(o.done))
		copy(completed, o.done)
		return &entity.ReplicationError{Op: o.name, Step: name, Completed: completed, Err: err}
	}
	o.done = append(o.done, name)
	o.span.AddEvent(name)
	return nil
}

// end records the outcome and returns err unchanged.
func (o *operation) end(err error) error {
	defer o.span.End()
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
		var rerr *entity.ReplicationError
		if errors.As(err, &rerr) && len(rerr.Completed) > 0 {
			outcome = metrics.OutcomePartial
			o.b.metrics.ReplicationFailure(o.name, rerr.Step)
			o.b.log.Error("replication stopped part way",
				zap.String("operation", o.name),
				zap.String("step", rerr.Step),
				zap.Strings("completed", rerr.Completed),
				zap.Error(err))
		}
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.b.metrics.ObserveOperation(o.name, outcome, o.started)
	return err
}

func (b *base) publish(ctx context.Context, subject string, data interface{}) {
	if b.events == nil {
		return
	}
	if err := b.events.Publish(ctx, subject, data); err != nil {
		b.log.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func (b *base) orphan(source string, err *entity.OrphanError) {
	b.metrics.Orphan(source)
	b.log.Warn("orphan record", zap.String("source", source), zap.String("path", err.Path), zap.String("missing", err.Missing))
}

// readListing reads one listing copy.
func (b *base) readListing(ctx context.Context, path string) (entity.Listing, bool, error) {
	v, ok, err := b.client.ReadOnce(ctx, path)
	if err != nil || !ok {
		return entity.Listing{}, false, err
	}
	return entity.ListingFromValue(store.Base(path), v), true, nil
}

func (b *base) readListings(ctx context.Context, path string) ([]entity.Listing, error) {
	children, err := b.client.Children(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Listing, 0, len(children))
	for key, v := range children {
		out = append(out, entity.ListingFromValue(key, v))
	}
	sortListings(out)
	return out, nil
}

func requireID(field, id string) error {
	if !schema.ValidID(id) {
		return &entity.ValidationError{Fields: []string{field}, Reason: "not a valid key"}
	}
	return nil
}
