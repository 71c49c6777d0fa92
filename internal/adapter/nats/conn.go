package nats

import (
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Connect opens the connection shared by the change feed and the event publisher.
func Connect(cfg config.NATSConfig, log *logger.Logger, appName string) (*nats.Conn, error) {
	log.Info("NATS: connecting...", zap.String("url", cfg.URL))

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := []nats.Option{
		nats.Name(fmt.Sprintf("%s NATS client", appName)),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			fields := []zap.Field{zap.Error(err)}
			if sub != nil {
				fields = append(fields, zap.String("subject", sub.Subject))
			}
			log.Error("NATS error", fields...)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		log.Error("NATS: failed to connect", zap.String("url", cfg.URL), zap.Error(err))
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	log.Info("NATS: successfully connected", zap.String("url", conn.ConnectedUrl()))
	return conn, nil
}

// Close drains and closes conn.
func Close(conn *nats.Conn, log *logger.Logger) {
	if conn == nil || conn.IsClosed() {
		return
	}
	if err := conn.Drain(); err != nil {
		log.Error("NATS: failed to drain connection", zap.Error(err))
		conn.Close()
	}
}
