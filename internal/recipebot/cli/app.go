package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/blueplan/recipebot/internal/recipebot/api"
	"github.com/blueplan/recipebot/internal/recipebot/config"
	"github.com/blueplan/recipebot/internal/recipebot/favorites"
	"github.com/blueplan/recipebot/internal/recipebot/llm"
	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/blueplan/recipebot/internal/recipebot/pool"
	"github.com/blueplan/recipebot/internal/recipebot/recommend"
	"github.com/blueplan/recipebot/internal/recipebot/router"
	"github.com/blueplan/recipebot/internal/recipebot/utils"
)

// app holds the collaborators shared by every transport.
type app struct {
	cfg     *config.Config
	logger  *logx.Logger
	pools   *pool.PoolManager
	store   favorites.Store
	limiter utils.RateLimiter
	counter utils.AccessCounter
	router  *router.Router
}

// accessCounterTTL bounds how long daily and per-user counters are kept.
const accessCounterTTL = 7 * 24 * time.Hour

// newApp wires the router and its stores from cfg. Redis-backed stores are
// used when memory.store_type is "redis".
func newApp(ctx context.Context, cfg *config.Config, logger *logx.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	backend, err := llm.NewClient(cfg.LLM.DefaultProvider, cfg.LLM.Providers[cfg.LLM.DefaultProvider])
	if err != nil {
		return nil, fmt.Errorf("init llm backend: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	window := time.Minute
	limit := cfg.Security.RateLimitPerMinute

	var history recommend.History
	switch cfg.Memory.StoreType {
	case config.StoreTypeRedis:
		a.pools = pool.NewPoolManager(&cfg.Memory, logger)
		client, err := a.pools.GetRedisClient(ctx, pool.PoolDefault)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect favorites store: %w", err)
		}
		a.store = favorites.NewRedisStore(client)
		history = recommend.NewRedisHistory(client, cfg.Bot.RecentHistorySize, cfg.Bot.RecentHistoryTTLDuration())

		limiterClient, err := a.pools.GetRedisClient(ctx, pool.PoolRateLimit)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect rate limiter: %w", err)
		}
		a.limiter = utils.NewRedisRateLimiter(limiterClient, logger, window, limit)
		a.counter = utils.NewRedisAccessCounter(client, accessCounterTTL)
	default:
		a.store = favorites.NewInmemStore()
		history = recommend.NewInmemHistory(cfg.Bot.RecentHistorySize)
		a.limiter = utils.NewMemoryRateLimiter(logger, window, limit)
		a.counter = utils.NewMemoryAccessCounter()
	}

	picker := recommend.NewPicker(history, logger, nil)
	a.router = router.New(backend, a.store, picker, logger, cfg.Bot.BackendTimeoutDuration(),
		router.WithAccessCounter(a.counter))

	logger.Info(ctx, "recipe bot initialized",
		logx.KV("llm_provider", cfg.LLM.DefaultProvider),
		logx.KV("store_type", cfg.Memory.StoreType))
	return a, nil
}

// rateLimiter returns the limiter when rate limiting is enabled.
func (a *app) rateLimiter() utils.RateLimiter {
	if !a.cfg.Security.EnableRateLimit {
		return nil
	}
	return a.limiter
}

func (a *app) apiServer() *api.Server {
	opts := api.Options{
		Router:      a.router,
		Store:       a.store,
		RateLimiter: a.limiter,
		Counter:     a.counter,
		Logger:      a.logger,
		Version:     Version,
	}
	if a.pools != nil {
		opts.Health = a.pools
	}
	return api.NewServer(a.cfg, opts)
}

func (a *app) close() {
	if a.pools != nil {
		if err := a.pools.Close(); err != nil {
			a.logger.Warn(context.Background(), "close redis pools", logx.KV("error", err))
		}
	}
	_ = a.logger.Sync()
}
