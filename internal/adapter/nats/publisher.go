package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("class-service/nats")

// Publisher sends domain events as JSON. It implements usecase.EventPublisher.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	logger *logger.Logger
}

// NewPublisher publishes on prefix + "." + subject; an empty prefix publishes
// on the bare subject.
func NewPublisher(conn *nats.Conn, prefix string, log *logger.Logger) *Publisher {
	return &Publisher{conn: conn, prefix: prefix, logger: log.Named("NATSPublisher")}
}

func (p *Publisher) subject(s string) string {
	if p.prefix == "" {
		return s
	}
	return p.prefix + "." + s
}

func (p *Publisher) Publish(ctx context.Context, subject string, data interface{}) error {
	subject = p.subject(subject)
	ctx, span := tracer.Start(ctx, "NATS.Publish "+subject,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("messaging.destination.name", subject)))
	defer span.End()

	jsonData, err := json.Marshal(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to marshal data for subject %s: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = jsonData
	otel.GetTextMapPropagator().Inject(ctx, HeaderCarrier(msg.Header))

	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.Error("Failed to publish event", zap.String("subject", subject), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to publish message to subject %s: %w", subject, err)
	}
	p.logger.Debug("Event published", zap.String("subject", subject), zap.Int("data_size_bytes", len(jsonData)))
	return nil
}

// HeaderCarrier lets the otel propagator read and write NATS headers.
type HeaderCarrier nats.Header

func (c HeaderCarrier) Get(key string) string {
	return nats.Header(c).Get(key)
}

func (c HeaderCarrier) Set(key string, value string) {
	nats.Header(c).Set(key, value)
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
