package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// History remembers the most recent picks per user, newest first.
type History interface {
	Recent(ctx context.Context, userID string) ([]string, error)
	Remember(ctx context.Context, userID, name string) error
}

// InmemHistory keeps a bounded list per user in process memory.
type InmemHistory struct {
	mu   sync.Mutex
	size int
	data map[string][]string
}

// NewInmemHistory keeps up to size names per user.
func NewInmemHistory(size int) *InmemHistory {
	return &InmemHistory{size: size, data: make(map[string][]string)}
}

func (h *InmemHistory) Recent(ctx context.Context, userID string) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	recent := h.data[userID]
	out := make([]string, len(recent))
	copy(out, recent)
	return out, nil
}

func (h *InmemHistory) Remember(ctx context.Context, userID, name string) error {
	if h.size <= 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	recent := append([]string{name}, h.data[userID]...)
	if len(recent) > h.size {
		recent = recent[:h.size]
	}
	h.data[userID] = recent
	return nil
}

// RedisHistory stores each user's picks in a capped Redis list.
type RedisHistory struct {
	client redis.UniversalClient
	size   int
	ttl    time.Duration
	prefix string
}

// NewRedisHistory keeps up to size names per user; ttl of zero keeps them forever.
func NewRedisHistory(client redis.UniversalClient, size int, ttl time.Duration) *RedisHistory {
	return &RedisHistory{
		client: client,
		size:   size,
		ttl:    ttl,
		prefix: "recipebot:recent:",
	}
}

func (h *RedisHistory) key(userID string) string {
	return h.prefix + userID
}

func (h *RedisHistory) Recent(ctx context.Context, userID string) ([]string, error) {
	if h.size <= 0 {
		return nil, nil
	}
	names, err := h.client.LRange(ctx, h.key(userID), 0, int64(h.size-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent recommendations: %w", err)
	}
	return names, nil
}

func (h *RedisHistory) Remember(ctx context.Context, userID, name string) error {
	if h.size <= 0 {
		return nil
	}
	key := h.key(userID)
	_, err := h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, name)
		pipe.LTrim(ctx, key, 0, int64(h.size-1))
		if h.ttl > 0 {
			pipe.Expire(ctx, key, h.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remember recommendation: %w", err)
	}
	return nil
}
