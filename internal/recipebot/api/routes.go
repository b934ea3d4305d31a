package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	"github.com/blueplan/recipebot/internal/recipebot/favorites"
	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/blueplan/recipebot/internal/recipebot/router"
	"github.com/blueplan/recipebot/internal/recipebot/utils"
	"github.com/gin-gonic/gin"
)

// Options are the collaborators of the HTTP server.
type Options struct {
	Router      *router.Router
	Store       favorites.Store
	Health      HealthChecker
	RateLimiter utils.RateLimiter
	Counter     utils.AccessCounter
	Logger      *logx.Logger
	Version     string
}

// Server is the HTTP front end of the bot.
type Server struct {
	engine  *gin.Engine
	config  *config.Config
	handler *Handler
	logger  *logx.Logger

	shutdown context.Context
	stop     context.CancelFunc
}

func NewServer(cfg *config.Config, opts Options) *Server {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logx.NewNop()
	}

	shutdown, stop := context.WithCancel(context.Background())
	s := &Server{
		engine: gin.New(),
		config: cfg,
		handler: &Handler{
			router:  opts.Router,
			store:   opts.Store,
			health:  opts.Health,
			counter: opts.Counter,
			logger:  logger,
			version: opts.Version,
			started: time.Now(),
		},
		logger:   logger,
		shutdown: shutdown,
		stop:     stop,
	}

	if err := s.engine.SetTrustedProxies(cfg.API.TrustedProxies); err != nil {
		logger.Warn(context.Background(), "invalid trusted proxies, trusting none", logx.KV("error", err))
		_ = s.engine.SetTrustedProxies(nil)
	}

	s.engine.Use(NewRecoveryMiddleware(logger).Recovery())
	s.engine.Use(RequestID())
	s.engine.Use(NewLoggingMiddleware(logger).LogRequest())
	s.engine.Use(NewCORSMiddleware(&cfg.API, logger).CORS())
	s.engine.Use(NewRequestSizeLimit(cfg.API.MaxRequestSize, logger).LimitRequestSize())

	s.setupRoutes(opts.RateLimiter)
	return s
}

func (s *Server) setupRoutes(limiter utils.RateLimiter) {
	s.engine.GET("/health", s.handler.HandleHealth)
	s.engine.GET("/ping", s.handler.HandlePing)

	v1 := s.engine.Group("/api/v1")
	v1.Use(NewAuthMiddleware(&s.config.Security, s.logger).RequireAuth())
	if s.config.Security.EnableRateLimit && limiter != nil {
		v1.Use(NewRateLimitMiddleware(limiter, s.logger).RateLimit())
	}

	v1.POST("/messages", s.handler.HandleMessage)
	v1.GET("/stats", s.handler.HandleStats)

	users := v1.Group("/users/:user_id")
	{
		users.GET("/favorites", s.handler.HandleListFavorites)
		users.POST("/favorites", s.handler.HandleAddFavorite)
		users.DELETE("/favorites", s.handler.HandleRemoveFavorite)
		users.DELETE("/favorites/:name", s.handler.HandleRemoveFavorite)
	}

	upgrader := newUpgrader(s.config.API.CORSOrigins)
	v1.GET("/ws", s.handler.HandleWebSocket(s.shutdown, upgrader, s.config.API.MaxRequestSize))
}

// Engine exposes the gin engine, mainly for httptest.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.API.Host, s.config.API.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", logx.KV("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	<-errCh
	s.logger.Info(ctx, "http server stopped")
	return nil
}
