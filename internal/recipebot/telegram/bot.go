// Package telegram runs the bot over Telegram long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	contextx "github.com/blueplan/recipebot/internal/recipebot/context"
	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/blueplan/recipebot/internal/recipebot/router"
	"github.com/blueplan/recipebot/internal/recipebot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// RateLimitedText answers users who exceed the message rate.
const RateLimitedText = "Too many requests, please slow down."

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	GetUpdatesChan(u tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot feeds Telegram messages to the router. Messages of one chat are handled
// one at a time in arrival order; different chats run concurrently.
type Bot struct {
	api         API
	router      *router.Router
	limiter     utils.RateLimiter
	logger      *logx.Logger
	pollTimeout int
	username    string

	mu    sync.Mutex
	chats map[int64]*chatQueue
	wg    sync.WaitGroup
}

type chatQueue struct {
	pending []*tgbotapi.Message
}

// New connects to Telegram with the configured access token.
func New(cfg config.TelegramConfig, r *router.Router, limiter utils.RateLimiter, logger *logx.Logger) (*Bot, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("telegram access token is required")
	}
	api, err := tgbotapi.NewBotAPI(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	api.Debug = cfg.Debug
	if logger != nil {
		logger.Info(context.Background(), "telegram bot authorized", logx.KV("username", api.Self.UserName))
	}
	return NewWithAPI(api, r, limiter, logger, cfg.PollTimeout, WithUsername(api.Self.UserName)), nil
}

// Option configures a Bot.
type Option func(*Bot)

// WithUsername sets the bot's own username. Commands addressed to another
// bot ("/detail@OtherBot ...") are then ignored.
func WithUsername(username string) Option {
	return func(b *Bot) {
		b.username = username
	}
}

// NewWithAPI builds a bot on an existing API client. A nil limiter disables
// rate limiting.
func NewWithAPI(api API, r *router.Router, limiter utils.RateLimiter, logger *logx.Logger, pollTimeout int, opts ...Option) *Bot {
	if logger == nil {
		logger = logx.NewNop()
	}
	if pollTimeout <= 0 {
		pollTimeout = 60
	}
	b := &Bot{
		api:         api,
		router:      r,
		limiter:     limiter,
		logger:      logger,
		pollTimeout: pollTimeout,
		chats:       make(map[int64]*chatQueue),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run polls for updates until ctx is done, then waits for messages already
// accepted to be answered.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info(ctx, "telegram polling started")
	defer b.wg.Wait()

	// In-flight replies still go out after shutdown starts.
	handleCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info(ctx, "telegram polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.enqueue(handleCtx, update.Message)
		}
	}
}

func (b *Bot) enqueue(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	b.mu.Lock()
	if q, ok := b.chats[chatID]; ok {
		q.pending = append(q.pending, msg)
		b.mu.Unlock()
		return
	}
	q := &chatQueue{pending: []*tgbotapi.Message{msg}}
	b.chats[chatID] = q
	b.wg.Add(1)
	b.mu.Unlock()

	go b.drain(ctx, chatID, q)
}

// drain handles a chat's queue and exits once it is empty.
func (b *Bot) drain(ctx context.Context, chatID int64, q *chatQueue) {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		if len(q.pending) == 0 {
			delete(b.chats, chatID)
			b.mu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending = q.pending[1:]
		b.mu.Unlock()

		b.handleMessage(ctx, msg)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}
	if cmd := router.Parse(msg.Text); !cmd.AddressedTo(b.username) {
		b.logger.Debug(ctx, "command addressed to another bot", logx.KV("bot", cmd.Bot))
		return
	}
	userID := strconv.FormatInt(msg.From.ID, 10)
	ctx = contextx.WithRequireID(ctx, uuid.NewString())
	ctx = contextx.WithUserID(ctx, userID)

	if b.limiter != nil {
		allowed, err := b.limiter.Allow(ctx, "telegram:"+userID)
		if err != nil {
			b.logger.Error(ctx, "rate limit check failed", logx.KV("error", err))
		} else if !allowed {
			b.send(ctx, msg.Chat.ID, RateLimitedText)
			return
		}
	}

	replies := b.router.Handle(ctx, router.Message{
		UserID:    userID,
		Text:      msg.Text,
		IsCommand: msg.IsCommand(),
	})
	for _, reply := range replies {
		if !b.send(ctx, msg.Chat.ID, reply) {
			return
		}
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) bool {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error(ctx, "telegram send failed",
			logx.KV("chat_id", chatID),
			logx.KV("error", err))
		return false
	}
	return true
}
