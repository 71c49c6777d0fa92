package nats

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// ChangeFeed relays store change notifications between instances. A change
// to a/b/c is published on <prefix>.a.b.c with the path as payload.
type ChangeFeed struct {
	conn   *nats.Conn
	prefix string
	log    *logger.Logger
}

func NewChangeFeed(conn *nats.Conn, prefix string, log *logger.Logger) *ChangeFeed {
	return &ChangeFeed{conn: conn, prefix: prefix, log: log.Named("ChangeFeed")}
}

func (f *ChangeFeed) Publish(ctx context.Context, path string) error {
	msg := nats.NewMsg(f.Subject(path))
	msg.Data = []byte(path)
	otel.GetTextMapPropagator().Inject(ctx, HeaderCarrier(msg.Header))
	if err := f.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish change %s: %w", path, err)
	}
	return nil
}

// Watch subscribes to changes of path itself, of everything below it, and of
// each ancestor (an ancestor removal takes path with it).
func (f *ChangeFeed) Watch(path string, fn func(changed string)) (func(), error) {
	subject := f.Subject(path)
	subjects := []string{subject, subject + ".>"}
	for _, a := range store.Ancestors(path) {
		subjects = append(subjects, f.Subject(a))
	}

	handler := func(m *nats.Msg) { fn(string(m.Data)) }
	subs := make([]*nats.Subscription, 0, len(subjects))
	stop := func() {
		for _, s := range subs {
			if err := s.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
				f.log.Debug("Unsubscribe failed", zap.String("subject", s.Subject), zap.Error(err))
			}
		}
	}
	for _, subj := range subjects {
		s, err := f.conn.Subscribe(subj, handler)
		if err != nil {
			stop()
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
		subs = append(subs, s)
	}
	return stop, nil
}

// Subject maps a store path to its NATS subject.
func (f *ChangeFeed) Subject(path string) string {
	segs := store.Split(path)
	tokens := make([]string, 0, len(segs)+1)
	if f.prefix != "" {
		tokens = append(tokens, f.prefix)
	}
	for _, s := range segs {
		tokens = append(tokens, encodeToken(s))
	}
	return strings.Join(tokens, ".")
}

// encodeToken escapes everything outside [A-Za-z0-9_-] as ~XX so a path
// segment is always exactly one subject token.
func encodeToken(seg string) string {
	var b strings.Builder
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "~%02X", c)
		}
	}
	return b.String()
}
