package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const dateLayout = "2006-01-02"

// AccessStats is a snapshot of message counts.
type AccessStats struct {
	Total int64 `json:"total"`
	Today int64 `json:"today"`
	User  int64 `json:"user,omitempty"`
}

// AccessCounter counts handled messages overall, per UTC day and per user.
type AccessCounter interface {
	Inc(ctx context.Context, userID string) error
	Stats(ctx context.Context, userID string) (AccessStats, error)
}

// RedisAccessCounter keeps the counters in Redis. Daily and per-user keys
// expire after ttl; the total never expires.
type RedisAccessCounter struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time

	totalKey       string
	dailyKeyPrefix string
	userKeyPrefix  string
}

func NewRedisAccessCounter(client redis.UniversalClient, ttl time.Duration) *RedisAccessCounter {
	return &RedisAccessCounter{
		client:         client,
		ttl:            ttl,
		now:            time.Now,
		totalKey:       "recipebot:access:total",
		dailyKeyPrefix: "recipebot:access:daily:",
		userKeyPrefix:  "recipebot:access:user:",
	}
}

func (a *RedisAccessCounter) Inc(ctx context.Context, userID string) error {
	dailyKey := a.dailyKeyPrefix + a.now().UTC().Format(dateLayout)
	userKey := a.userKeyPrefix + userID

	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, a.totalKey)
		pipe.Incr(ctx, dailyKey)
		pipe.Expire(ctx, dailyKey, a.ttl)
		if userID != "" {
			pipe.Incr(ctx, userKey)
			pipe.Expire(ctx, userKey, a.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("increment access counters: %w", err)
	}
	return nil
}

func (a *RedisAccessCounter) Stats(ctx context.Context, userID string) (AccessStats, error) {
	keys := []string{a.totalKey, a.dailyKeyPrefix + a.now().UTC().Format(dateLayout)}
	if userID != "" {
		keys = append(keys, a.userKeyPrefix+userID)
	}
	values, err := a.client.MGet(ctx, keys...).Result()
	if err != nil {
		return AccessStats{}, fmt.Errorf("read access counters: %w", err)
	}

	counts := make([]int64, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, err := fmt.Sscan(s, &counts[i]); err != nil {
			return AccessStats{}, fmt.Errorf("parse access counter %s: %w", keys[i], err)
		}
	}

	stats := AccessStats{Total: counts[0], Today: counts[1]}
	if userID != "" {
		stats.User = counts[2]
	}
	return stats, nil
}

// MemoryAccessCounter is the single-process counterpart of RedisAccessCounter.
type MemoryAccessCounter struct {
	mu    sync.Mutex
	now   func() time.Time
	total int64
	daily map[string]int64
	users map[string]int64
}

func NewMemoryAccessCounter() *MemoryAccessCounter {
	return &MemoryAccessCounter{
		now:   time.Now,
		daily: make(map[string]int64),
		users: make(map[string]int64),
	}
}

func (a *MemoryAccessCounter) Inc(ctx context.Context, userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	a.daily[a.now().UTC().Format(dateLayout)]++
	if userID != "" {
		a.users[userID]++
	}
	return nil
}

func (a *MemoryAccessCounter) Stats(ctx context.Context, userID string) (AccessStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	stats := AccessStats{
		Total: a.total,
		Today: a.daily[a.now().UTC().Format(dateLayout)],
	}
	if userID != "" {
		stats.User = a.users[userID]
	}
	return stats, nil
}
