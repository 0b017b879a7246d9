// Package ratelimit throttles per-client request rates on the auth endpoints.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a Redis-backed fixed-window counter. Each (key, window slot)
// pair gets its own counter, so state is shared across replicas pointing at
// the same Redis.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// New builds a limiter on an injected Redis client. The client is shared
// with the caller and is not closed by the limiter.
func New(client *redis.Client, prefix string, limit int, window time.Duration) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("ratelimit: redis client is required")
	}
	if limit <= 0 || window <= 0 {
		return nil, errors.New("ratelimit: limit and window must be positive")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "pharmacompare:ratelimit"
	}
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}, nil
}

// Allow reports whether the key still has quota in the current window.
// Redis errors fail closed.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := l.client.Incr(ctx, l.bucket(key)).Result()
	if err != nil {
		return false
	}
	if count == 1 {
		// The TTL is only cleanup; the slot in the key already bounds
		// the window.
		if err := l.client.PExpire(ctx, l.bucket(key), l.window).Err(); err != nil {
			return false
		}
	}
	return count <= int64(l.limit)
}

func (l *Limiter) bucket(key string) string {
	slot := time.Now().UTC().UnixMilli() / l.window.Milliseconds()
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)
}
