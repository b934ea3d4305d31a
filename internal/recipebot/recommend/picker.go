package recommend

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	logx "github.com/blueplan/recipebot/internal/recipebot/log"
)

// Picker chooses one candidate uniformly at random, preferring names the
// user has not been shown recently.
type Picker struct {
	history History
	logger  *logx.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker creates a picker. A nil history disables repeat avoidance; a nil
// rng uses the global source.
func NewPicker(history History, logger *logx.Logger, rng *rand.Rand) *Picker {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &Picker{history: history, logger: logger, rng: rng}
}

// Pick parses text and returns the chosen dish. It returns ErrNoCandidates
// when text holds no names. History failures only cost repeat avoidance.
func (p *Picker) Pick(ctx context.Context, userID, text string) (string, error) {
	candidates := ParseCandidates(text)
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}

	pool := candidates
	if p.history != nil {
		recent, err := p.history.Recent(ctx, userID)
		if err != nil {
			p.logger.Warn(ctx, "recent recommendations unavailable", logx.KV("error", err))
		}
		if fresh := excludeRecent(candidates, recent); len(fresh) > 0 {
			pool = fresh
		}
	}

	choice := pool[p.intN(len(pool))]

	if p.history != nil {
		if err := p.history.Remember(ctx, userID, choice); err != nil {
			p.logger.Warn(ctx, "failed to remember recommendation", logx.KV("error", err))
		}
	}
	return choice, nil
}

func (p *Picker) intN(n int) int {
	if p.rng == nil {
		return rand.IntN(n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

func excludeRecent(candidates, recent []string) []string {
	if len(recent) == 0 {
		return candidates
	}
	fresh := make([]string, 0, len(candidates))
	for _, c := range candidates {
		seen := false
		for _, r := range recent {
			if strings.EqualFold(c, r) {
				seen = true
				break
			}
		}
		if !seen {
			fresh = append(fresh, c)
		}
	}
	return fresh
}
