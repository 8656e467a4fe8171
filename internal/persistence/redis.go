package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/p2p-exchange-bot/internal/config"
)

// Redis wraps the go-redis client. It backs webhook replay suppression:
// Telegram redelivers updates until acknowledged, and commands must not
// execute twice for the same update id.
type Redis struct {
	Client   *redis.Client
	dedupTTL time.Duration
	logger   *zap.Logger
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, dedupTTL: cfg.DedupTTL(), logger: logger}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// SeenUpdate records the update id and reports whether it was already
// processed. Fails open: if Redis is unreachable the update is treated as
// new, trading duplicate suppression for availability.
func (r *Redis) SeenUpdate(ctx context.Context, updateID int64) bool {
	if r == nil || r.Client == nil {
		return false
	}
	key := fmt.Sprintf("tg:update:%d", updateID)
	set, err := r.Client.SetNX(ctx, key, 1, r.dedupTTL).Result()
	if err != nil {
		r.logger.Warn("update dedup unavailable", zap.Error(err))
		return false
	}
	return !set
}
