package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/pkg/config"
)

// RedisClient abstracts the go-redis commands the sink uses.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Dialer builds a fresh client. Injected so tests can substitute mocks and so
// Reconnect can swap the connection out from under callers.
type Dialer func() RedisClient

// NewRedisDialer returns a Dialer over a real go-redis client.
func NewRedisDialer(cfg config.RedisConfig) Dialer {
	return func() RedisClient {
		return redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}
}

// RedisSink publishes payloads over Redis pub/sub.
type RedisSink struct {
	mu     sync.RWMutex
	client RedisClient
	dial   Dialer
	logger *zap.Logger
}

var _ Sink = (*RedisSink)(nil)

// NewRedisSink dials and verifies the connection with a PING.
func NewRedisSink(ctx context.Context, dial Dialer, logger *zap.Logger) (*RedisSink, error) {
	client := dial()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisSink{client: client, dial: dial, logger: logger}, nil
}

// Publish sends the payload to the channel and returns the subscriber count.
func (r *RedisSink) Publish(ctx context.Context, channel, payload string) (int64, error) {
	r.mu.RLock()
	client := r.client
	r.mu.RUnlock()

	n, err := client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("publish to %s: %w", channel, err)
	}
	return n, nil
}

// Ping is a lightweight liveness probe.
func (r *RedisSink) Ping(ctx context.Context) error {
	r.mu.RLock()
	client := r.client
	r.mu.RUnlock()
	return client.Ping(ctx).Err()
}

// Reconnect replaces the client with a freshly dialed one. The old connection
// is closed regardless of whether the new one is healthy.
func (r *RedisSink) Reconnect(ctx context.Context) error {
	r.logger.Info("Reconnecting Redis sink")

	fresh := r.dial()
	if err := fresh.Ping(ctx).Err(); err != nil {
		fresh.Close()
		return fmt.Errorf("reconnect ping failed: %w", err)
	}

	r.mu.Lock()
	old := r.client
	r.client = fresh
	r.mu.Unlock()

	if err := old.Close(); err != nil {
		r.logger.Warn("Error closing stale Redis client", zap.Error(err))
	}
	return nil
}

func (r *RedisSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}
