package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/redis/go-redis/v9"
)

// Pool types. Favorites and recommendation history share the default pool;
// rate limiting runs on its own so a burst of rejected requests cannot starve
// favorites traffic.
const (
	PoolDefault   = "default"
	PoolRateLimit = "rate_limit"
)

// Manager hands out Redis clients per pool type.
type Manager interface {
	// GetRedisClient returns the client for poolType, dialing it on first use.
	GetRedisClient(ctx context.Context, poolType string) (*redis.Client, error)

	// HealthCheck pings every open pool.
	HealthCheck(ctx context.Context) (map[string]interface{}, error)

	// Close closes every open pool.
	Close() error
}

// PoolManager is the go-redis backed Manager.
type PoolManager struct {
	redisPools map[string]*redis.Client
	config     *config.MemoryConfig
	logger     *logx.Logger
	mu         sync.RWMutex
	stats      PoolStats
}

// PoolStats counts client requests and dial failures.
type PoolStats struct {
	RedisRequests atomic.Int64
	RedisFailures atomic.Int64
	LastReset     time.Time
}

// NewPoolManager creates a manager; no connection is made until a pool is requested.
func NewPoolManager(cfg *config.MemoryConfig, logger *logx.Logger) *PoolManager {
	pm := &PoolManager{
		redisPools: make(map[string]*redis.Client),
		config:     cfg,
		logger:     logger,
	}
	pm.stats.LastReset = time.Now()
	return pm
}

// GetRedisClient returns the Redis client for poolType.
func (pm *PoolManager) GetRedisClient(ctx context.Context, poolType string) (*redis.Client, error) {
	pm.mu.RLock()
	client, exists := pm.redisPools[poolType]
	pm.mu.RUnlock()

	if exists {
		pm.stats.RedisRequests.Add(1)
		return client, nil
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	// double check under the write lock
	if client, exists := pm.redisPools[poolType]; exists {
		pm.stats.RedisRequests.Add(1)
		return client, nil
	}

	client, err := pm.createRedisPool(ctx, poolType)
	if err != nil {
		pm.stats.RedisFailures.Add(1)
		return nil, fmt.Errorf("create redis pool (pool_type=%s): %w", poolType, err)
	}

	pm.redisPools[poolType] = client
	pm.stats.RedisRequests.Add(1)

	pm.logger.Info(ctx, "redis pool created",
		logx.KV("pool_type", poolType),
		logx.KV("addr", fmt.Sprintf("%s:%d", pm.config.RedisHost, pm.config.RedisPort)))
	return client, nil
}

// createRedisPool dials and pings a new client.
func (pm *PoolManager) createRedisPool(ctx context.Context, poolType string) (*redis.Client, error) {
	opt, err := redis.ParseURL(pm.config.RedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opt.PoolSize = pm.getMaxConnectionsForPoolType(poolType)
	opt.MinIdleConns = 1
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

func (pm *PoolManager) getMaxConnectionsForPoolType(poolType string) int {
	switch poolType {
	case PoolDefault:
		return 50
	case PoolRateLimit:
		return 20
	default:
		return 10
	}
}

// HealthCheck pings every pool and reports per-pool status.
func (pm *PoolManager) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	pools := make(map[string]interface{}, len(pm.redisPools))
	health := map[string]interface{}{
		"overall_status": "healthy",
		"pools":          pools,
		"requests":       pm.stats.RedisRequests.Load(),
		"failures":       pm.stats.RedisFailures.Load(),
	}

	allHealthy := true
	for poolType, client := range pm.redisPools {
		poolHealth := map[string]interface{}{}

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			poolHealth["status"] = "unhealthy"
			poolHealth["error"] = err.Error()
			allHealthy = false
		} else {
			poolHealth["status"] = "healthy"
			poolStats := client.PoolStats()
			poolHealth["stats"] = map[string]interface{}{
				"total_conns": poolStats.TotalConns,
				"idle_conns":  poolStats.IdleConns,
				"stale_conns": poolStats.StaleConns,
				"hits":        poolStats.Hits,
				"misses":      poolStats.Misses,
			}
		}
		cancel()

		pools[poolType] = poolHealth
	}

	if !allHealthy {
		health["overall_status"] = "degraded"
	}

	return health, nil
}

// Close closes all pools.
func (pm *PoolManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var lastErr error
	for poolType, client := range pm.redisPools {
		if err := client.Close(); err != nil {
			pm.logger.Error(context.Background(), "close redis pool failed", logx.KV("pool_type", poolType), logx.KV("error", err))
			lastErr = err
		}
	}

	pm.redisPools = make(map[string]*redis.Client)
	return lastErr
}
