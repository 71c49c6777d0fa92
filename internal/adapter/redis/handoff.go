package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/schema"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultHandoffTTL = time.Second

func NewRedisClient(cfg *config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", zap.String("address", cfg.Address), zap.Error(err))
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Address, err)
	}
	log.Info("Successfully connected to Redis", zap.String("address", cfg.Address))
	return rdb, nil
}

// HandoffStore keeps short-lived scalars under owners/{ownerId}/handoff/{key}.
// A value expires after ttl and is deleted by the read that consumes it.
type HandoffStore struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *logger.Logger
}

func NewHandoffStore(client redis.Cmdable, ttl time.Duration, log *logger.Logger) *HandoffStore {
	if ttl <= 0 {
		ttl = defaultHandoffTTL
	}
	return &HandoffStore{client: client, ttl: ttl, logger: log.Named("HandoffStore")}
}

func (h *HandoffStore) key(ownerID, key string) (string, error) {
	if !schema.ValidID(ownerID) || !schema.ValidID(key) {
		return "", &entity.ValidationError{Fields: []string{"ownerId", "key"}, Reason: "not a valid key"}
	}
	return schema.Handoff(ownerID, key), nil
}

// Put stores value, replacing any unread one.
func (h *HandoffStore) Put(ctx context.Context, ownerID, key, value string) error {
	k, err := h.key(ownerID, key)
	if err != nil {
		return err
	}
	if err := h.client.Set(ctx, k, value, h.ttl).Err(); err != nil {
		h.logger.Error("Redis Set failed", zap.String("key", k), zap.Error(err))
		return fmt.Errorf("handoff put %s: %w", k, err)
	}
	h.logger.Debug("Handoff stored", zap.String("key", k), zap.Duration("ttl", h.ttl))
	return nil
}

// Take returns the value and deletes it. A missing or expired value is ErrNotFound.
func (h *HandoffStore) Take(ctx context.Context, ownerID, key string) (string, error) {
	k, err := h.key(ownerID, key)
	if err != nil {
		return "", err
	}
	val, err := h.client.GetDel(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", entity.NotFoundError(k)
		}
		h.logger.Error("Redis GetDel failed", zap.String("key", k), zap.Error(err))
		return "", fmt.Errorf("handoff take %s: %w", k, err)
	}
	return val, nil
}
