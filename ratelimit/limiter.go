// Package ratelimit admits or rejects callers with a fixed-window counter per key.
//
// The set of tracked keys is bounded; when it is full the least recently used key is
// evicted to make room. State lives in process memory only and is owned by whoever
// constructs the Limiter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxKeys     = 500
	DefaultMaxRequests = 500
)

// ErrLimitExceeded is the expected rejection, surfaced as 429 by the HTTP layer
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Entry is the counter kept for one key
type Entry struct {
	Count        int
	WindowExpiry time.Time
}

// Observer is notified of every admission decision
type Observer interface {
	ObserveDecision(ctx context.Context, limiter string, allowed bool)
}

// Observers fans a decision out to several observers
type Observers []Observer

// ObserveDecision implements Observer
func (o Observers) ObserveDecision(ctx context.Context, limiter string, allowed bool) {
	for _, obs := range o {
		if obs != nil {
			obs.ObserveDecision(ctx, limiter, allowed)
		}
	}
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces time.Now, used by tests to roll windows over
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// Limiter is safe for concurrent use
type Limiter struct {
	name        string
	window      time.Duration
	maxRequests int
	now         func() time.Time

	mu      sync.Mutex
	entries *simplelru.LRU[string, *Entry]
}

// New creates a limiter admitting maxRequests per key per window while tracking at most maxKeys keys
func New(name string, window time.Duration, maxKeys, maxRequests int, opts ...Option) (*Limiter, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}
	if maxRequests < 1 {
		return nil, fmt.Errorf("max requests must be at least 1, got %d", maxRequests)
	}
	entries, err := simplelru.NewLRU[string, *Entry](maxKeys, nil)
	if err != nil {
		return nil, fmt.Errorf("creating key cache: %w", err)
	}
	l := &Limiter{
		name:        name,
		window:      window,
		maxRequests: maxRequests,
		now:         time.Now,
		entries:     entries,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Name identifies the limiter in logs and metrics
func (l *Limiter) Name() string {
	return l.name
}

// Admit counts a request for key and reports whether it is within the limit.
// A rejected request does not consume from the window.
func (l *Limiter) Admit(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries.Get(key)
	if !ok || !now.Before(e.WindowExpiry) {
		l.entries.Add(key, &Entry{Count: 1, WindowExpiry: now.Add(l.window)})
		return true
	}
	if e.Count >= l.maxRequests {
		return false
	}
	e.Count++
	return true
}

// Peek returns a copy of the entry for key without touching its recency
func (l *Limiter) Peek(key string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries.Peek(key)
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Prune drops entries whose window has elapsed and returns how many were removed
func (l *Limiter) Prune() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for _, k := range l.entries.Keys() {
		if e, ok := l.entries.Peek(k); ok && !now.Before(e.WindowExpiry) {
			l.entries.Remove(k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries.Len()
}
