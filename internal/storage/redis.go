// Package storage keeps the bot's shared state in Redis.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Connect opens a Redis client and checks it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return client, nil
}

// Counter is the subset of Redis commands the throttle uses.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// RedisCounter adapts a go-redis client to Counter.
type RedisCounter struct {
	Client *redis.Client
}

func (c RedisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return c.Client.Incr(ctx, key).Result()
}

func (c RedisCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.Client.Expire(ctx, key, ttl).Err()
}

func (c RedisCounter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.Client.TTL(ctx, key).Result()
}

// Throttle allows each user Limit requests per Window.
type Throttle struct {
	counter Counter
	Limit   int
	Window  time.Duration
}

// NewThrottle creates a fixed window throttle over counter.
func NewThrottle(counter Counter, limit int, window time.Duration) *Throttle {
	return &Throttle{counter: counter, Limit: limit, Window: window}
}

// RateKey is the counter key for userID.
func RateKey(userID int64) string {
	return fmt.Sprintf("rate:%d", userID)
}

// Allow counts one request for userID. When the user is over the limit it
// returns false and the time left in the window.
func (t *Throttle) Allow(ctx context.Context, userID int64) (bool, time.Duration, error) {
	if t == nil || t.Limit <= 0 {
		return true, 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	key := RateKey(userID)
	n, err := t.counter.Incr(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if n == 1 {
		if err := t.counter.Expire(ctx, key, t.Window); err != nil {
			return false, 0, err
		}
	}
	if n <= int64(t.Limit) {
		return true, 0, nil
	}

	ttl, err := t.counter.TTL(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if ttl < 0 {
		// key lost its expiry, start a new window
		if err := t.counter.Expire(ctx, key, t.Window); err != nil {
			return false, 0, err
		}
		ttl = t.Window
	}
	return false, ttl, nil
}
