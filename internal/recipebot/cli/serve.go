package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/blueplan/recipebot/internal/recipebot/telegram"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var withTelegram bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, optionally together with the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.Load()
			logger, err := logx.NewLogger(cfg.App.LogLevel)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			var bot *telegram.Bot
			if withTelegram {
				bot, err = telegram.New(cfg.Telegram, a.router, a.rateLimiter(), logger)
				if err != nil {
					return fmt.Errorf("start telegram bot: %w", err)
				}
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return a.apiServer().Run(gctx)
			})
			if bot != nil {
				g.Go(func() error {
					return bot.Run(gctx)
				})
			}

			logger.Info(ctx, "recipe bot serving",
				logx.KV("version", Version),
				logx.KV("telegram", withTelegram))
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&withTelegram, "telegram", false, "also poll Telegram for messages")
	return cmd
}

// NewTelegramCmd creates the telegram command.
func NewTelegramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telegram",
		Short: "Run only the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.Load()
			logger, err := logx.NewLogger(cfg.App.LogLevel)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			bot, err := telegram.New(cfg.Telegram, a.router, a.rateLimiter(), logger)
			if err != nil {
				return fmt.Errorf("start telegram bot: %w", err)
			}
			return bot.Run(ctx)
		},
	}
}

// runContext returns cmd's context, or Background when cmd was executed
// without one.
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
