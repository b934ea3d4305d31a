// Package router turns one inbound chat message into its replies: it
// classifies the text, validates arguments, talks to the generation backend
// or the favorites store and formats the outcome.
package router

import (
	"context"
	"errors"
	"time"

	contextx "github.com/blueplan/recipebot/internal/recipebot/context"
	"github.com/blueplan/recipebot/internal/recipebot/favorites"
	"github.com/blueplan/recipebot/internal/recipebot/llm"
	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/blueplan/recipebot/internal/recipebot/prompt"
	"github.com/blueplan/recipebot/internal/recipebot/recommend"
	"github.com/blueplan/recipebot/internal/recipebot/utils"
	textx "github.com/blueplan/recipebot/internal/recipebot/utils/text"
)

// Message is an inbound chat message as delivered by a transport.
type Message struct {
	UserID string
	Text   string
	// IsCommand is the transport's own classification. It is logged only;
	// the router classifies from Text so every transport behaves the same.
	IsCommand bool
}

// Router is safe for concurrent use; all mutable state lives in the injected
// collaborators.
type Router struct {
	backend llm.Backend
	store   favorites.Store
	picker  *recommend.Picker
	logger  *logx.Logger
	counter utils.AccessCounter
}

// Option configures optional router behaviour.
type Option func(*Router)

// WithAccessCounter counts every handled message.
func WithAccessCounter(c utils.AccessCounter) Option {
	return func(r *Router) { r.counter = c }
}

// New creates a router. Every backend call is bounded by timeout when it is
// positive. A nil picker recommends without repeat avoidance.
func New(backend llm.Backend, store favorites.Store, picker *recommend.Picker, logger *logx.Logger, timeout time.Duration, opts ...Option) *Router {
	if logger == nil {
		logger = logx.NewNop()
	}
	if picker == nil {
		picker = recommend.NewPicker(nil, logger, nil)
	}
	r := &Router{
		backend: llm.WithTimeout(backend, timeout),
		store:   store,
		picker:  picker,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle returns the replies for msg in sending order: one reply, or two for a
// free-text question. It never fails; every outcome is rendered as text.
func (r *Router) Handle(ctx context.Context, msg Message) []string {
	if msg.UserID != "" {
		ctx = contextx.WithUserID(ctx, msg.UserID)
	}
	start := time.Now()
	cmd := Parse(msg.Text)

	replies := r.dispatch(ctx, msg.UserID, cmd)

	if r.counter != nil {
		if err := r.counter.Inc(ctx, msg.UserID); err != nil {
			r.logger.Warn(ctx, "failed to count message", logx.KV("error", err))
		}
	}

	r.logger.Info(ctx, "message handled",
		logx.KV("command", cmd.Kind.String()),
		logx.KV("is_command", msg.IsCommand),
		logx.KV("replies", len(replies)),
		logx.KV("duration", time.Since(start)))
	return replies
}

func (r *Router) dispatch(ctx context.Context, userID string, cmd Command) []string {
	args, err := cmd.Validate()
	if err != nil {
		var usage *UsageError
		if errors.As(err, &usage) {
			r.logger.Debug(ctx, "invalid command arguments", logx.KV("command", cmd.Kind.String()))
			return []string{usage.Usage}
		}
		return []string{err.Error()}
	}

	switch cmd.Kind {
	case Help:
		return []string{HelpText}
	case Popular:
		return []string{r.popular(ctx, userID)}
	case Recipe:
		return []string{r.ask(ctx, prompt.Recipe(args[0]))}
	case Detail:
		return []string{r.ask(ctx, prompt.Detail(args[0]))}
	case Plan:
		return []string{r.ask(ctx, prompt.Plan(args[0], args[1]))}
	case Recommend:
		return []string{r.ask(ctx, prompt.Recommend(args[0]))}
	case Nutrition:
		return []string{r.ask(ctx, prompt.Nutrition(args[0]))}
	case Collect:
		return []string{r.collect(ctx, userID, args[0])}
	case History:
		return []string{r.history(ctx, userID)}
	case Delete:
		return []string{r.remove(ctx, userID, args[0])}
	default:
		return r.freeText(ctx, cmd.Text)
	}
}

// ask submits query and returns the sanitized answer or the failure reply.
func (r *Router) ask(ctx context.Context, query string) string {
	answer, err := r.submit(ctx, query)
	if err != nil {
		return BackendFailureText
	}
	return textx.Clean(answer)
}

func (r *Router) submit(ctx context.Context, query string) (string, error) {
	answer, err := r.backend.Submit(ctx, query)
	if err != nil {
		r.logger.Error(ctx, "generation backend failed",
			logx.KV("error", err),
			logx.KV("query_len", len(query)))
		return "", err
	}
	return answer, nil
}

func (r *Router) popular(ctx context.Context, userID string) string {
	answer, err := r.submit(ctx, prompt.Popular())
	if err != nil {
		return BackendFailureText
	}
	name, err := r.picker.Pick(ctx, userID, answer)
	if errors.Is(err, recommend.ErrNoCandidates) {
		r.logger.Warn(ctx, "no popular recipe candidates in answer")
		return noPopularText
	}
	if err != nil {
		r.logger.Error(ctx, "popular recipe pick failed", logx.KV("error", err))
		return noPopularText
	}
	return popularReply(name)
}

// freeText answers an open question. A blank message skips the backend and
// only gets the capability summary.
func (r *Router) freeText(ctx context.Context, question string) []string {
	if question == "" {
		return []string{CapabilitySummary}
	}
	return []string{r.ask(ctx, question), CapabilitySummary}
}

func (r *Router) collect(ctx context.Context, userID, name string) string {
	if err := r.store.Add(ctx, userID, name); err != nil {
		return r.storeFailure(ctx, "collect", err, usages[Collect])
	}
	return collectedReply(name)
}

func (r *Router) remove(ctx context.Context, userID, name string) string {
	if err := r.store.Remove(ctx, userID, name); err != nil {
		return r.storeFailure(ctx, "delete", err, usages[Delete])
	}
	return deletedReply(name)
}

func (r *Router) history(ctx context.Context, userID string) string {
	names, err := r.store.List(ctx, userID)
	if err != nil {
		return r.storeFailure(ctx, "history", err, "")
	}
	return historyReply(names)
}

func (r *Router) storeFailure(ctx context.Context, op string, err error, usage string) string {
	if errors.Is(err, favorites.ErrInvalidName) && usage != "" {
		return usage
	}
	r.logger.Error(ctx, "favorites store failed",
		logx.KV("operation", op),
		logx.KV("error", err))
	return StoreFailureText
}
