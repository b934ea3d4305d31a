// Package mock provides scripted generation backends for tests and offline runs.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Mock answers queries from a reply function and records every query it saw.
type Mock struct {
	mu    sync.Mutex
	reply func(query string) (string, error)
	delay time.Duration
	calls []string
}

// New returns a backend that always answers reply.
func New(reply string) *Mock {
	return NewFunc(func(string) (string, error) { return reply, nil })
}

// NewFunc returns a backend driven by fn.
func NewFunc(fn func(query string) (string, error)) *Mock {
	return &Mock{reply: fn}
}

// NewFailing returns a backend that always fails with err.
func NewFailing(err error) *Mock {
	return NewFunc(func(string) (string, error) { return "", err })
}

// WithDelay makes every call wait d before answering, or until ctx is done.
func (m *Mock) WithDelay(d time.Duration) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

func (m *Mock) Submit(ctx context.Context, query string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return m.reply(query)
}

// Calls returns the queries submitted so far.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Echo is the reply function of the "mock" provider: a fixed dish list for the
// popular prompt, the query itself for everything else.
func Echo(query string) (string, error) {
	if strings.HasPrefix(query, "Generate one random recommended dish name") {
		return "1. Mapo Tofu\n2. Kung Pao Chicken\n3. Dumplings", nil
	}
	return "**Answer:** " + query, nil
}
