package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter admits at most a fixed number of events per key in a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Remaining(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
	GetLimitInfo(ctx context.Context, key string) (*LimitInfo, error)
}

// LimitInfo describes the current window for a key.
type LimitInfo struct {
	Limit     int           `json:"limit"`
	Remaining int           `json:"remaining"`
	ResetTime time.Time     `json:"reset_time"`
	Window    time.Duration `json:"window"`
}

// slidingWindowScript trims expired entries, then admits the event if the
// window still has room. Scores are unix milliseconds.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, 0, window_start)
local current = redis.call('ZCARD', key)
if current < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window_ms)
	return {1, limit - current - 1}
end
return {0, 0}
`)

// RedisRateLimiter keeps one sorted set per key so limits hold across replicas.
type RedisRateLimiter struct {
	client redis.UniversalClient
	logger *logx.Logger
	window time.Duration
	limit  int
	prefix string
}

func NewRedisRateLimiter(client redis.UniversalClient, logger *logx.Logger, window time.Duration, limit int) *RedisRateLimiter {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &RedisRateLimiter{
		client: client,
		logger: logger,
		window: window,
		limit:  limit,
		prefix: "recipebot:rate_limit:",
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-rl.window)

	result, err := slidingWindowScript.Run(ctx, rl.client, []string{rl.prefix + key},
		windowStart.UnixMilli(), now.UnixMilli(), rl.limit, rl.window.Milliseconds(), uuid.NewString()).Int64Slice()
	if err != nil {
		rl.logger.Error(ctx, "rate limit check failed",
			logx.KV("key", key),
			logx.KV("error", err))
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	if len(result) != 2 {
		return false, fmt.Errorf("rate limit check: unexpected script result %v", result)
	}

	allowed := result[0] == 1
	if !allowed {
		rl.logger.Warn(ctx, "request rate limited",
			logx.KV("key", key),
			logx.KV("limit", rl.limit))
	}
	return allowed, nil
}

func (rl *RedisRateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	redisKey := rl.prefix + key
	windowStart := time.Now().Add(-rl.window)

	if err := rl.client.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixMilli())).Err(); err != nil {
		return 0, err
	}
	current, err := rl.client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return 0, err
	}
	return max(rl.limit-int(current), 0), nil
}

func (rl *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.client.Del(ctx, rl.prefix+key).Err()
}

func (rl *RedisRateLimiter) GetLimitInfo(ctx context.Context, key string) (*LimitInfo, error) {
	remaining, err := rl.Remaining(ctx, key)
	if err != nil {
		return nil, err
	}
	return &LimitInfo{
		Limit:     rl.limit,
		Remaining: remaining,
		ResetTime: time.Now().Add(rl.window),
		Window:    rl.window,
	}, nil
}

// MemoryRateLimiter is the single-process counterpart of RedisRateLimiter.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	logger   *logx.Logger
	window   time.Duration
	limit    int
	now      func() time.Time
}

func NewMemoryRateLimiter(logger *logx.Logger, window time.Duration, limit int) *MemoryRateLimiter {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &MemoryRateLimiter{
		requests: make(map[string][]time.Time),
		logger:   logger,
		window:   window,
		limit:    limit,
		now:      time.Now,
	}
}

// prune drops expired entries for key. Callers hold ml.mu.
func (ml *MemoryRateLimiter) prune(key string, now time.Time) []time.Time {
	windowStart := now.Add(-ml.window)
	valid := ml.requests[key][:0]
	for _, t := range ml.requests[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(ml.requests, key)
		return nil
	}
	ml.requests[key] = valid
	return valid
}

func (ml *MemoryRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	valid := ml.prune(key, now)
	if len(valid) >= ml.limit {
		ml.logger.Warn(ctx, "request rate limited",
			logx.KV("key", key),
			logx.KV("current", len(valid)),
			logx.KV("limit", ml.limit))
		return false, nil
	}
	ml.requests[key] = append(valid, now)
	return true, nil
}

func (ml *MemoryRateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return max(ml.limit-len(ml.prune(key, ml.now())), 0), nil
}

func (ml *MemoryRateLimiter) Reset(ctx context.Context, key string) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.requests, key)
	return nil
}

func (ml *MemoryRateLimiter) GetLimitInfo(ctx context.Context, key string) (*LimitInfo, error) {
	remaining, err := ml.Remaining(ctx, key)
	if err != nil {
		return nil, err
	}
	return &LimitInfo{
		Limit:     ml.limit,
		Remaining: remaining,
		ResetTime: ml.now().Add(ml.window),
		Window:    ml.window,
	}, nil
}
