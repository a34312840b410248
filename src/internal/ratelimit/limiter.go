package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Store keeps one counter per (key, window index).
type Store interface {
	// Increment adds one to the counter of key in the given window and
	// returns the new count.
	Increment(ctx context.Context, key string, windowIndex int64, windowSeconds int64) (int64, error)
	Size(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

type Result struct {
	Allowed   bool
	Current   int64
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window resets.
func (r Result) RetryAfter(now time.Time) int64 {
	seconds := r.ResetAt.Unix() - now.Unix()
	if seconds < 0 {
		return 0
	}
	return seconds
}

type Limiter struct {
	store Store
	now   func() time.Time
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func NewLimiter(store Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndIncrement counts one request for key in the current fixed window
// and reports whether it fits under maxRequests.
func (l *Limiter) CheckAndIncrement(ctx context.Context, key string, maxRequests int64, windowSeconds int64) (Result, error) {
	if windowSeconds <= 0 {
		return Result{}, fmt.Errorf("rate limit window must be positive, got %d", windowSeconds)
	}

	index := l.now().Unix() / windowSeconds
	count, err := l.store.Increment(ctx, key, index, windowSeconds)
	if err != nil {
		return Result{}, fmt.Errorf("increment %s: %w", key, err)
	}

	remaining := maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= maxRequests,
		Current:   count,
		Limit:     maxRequests,
		Remaining: remaining,
		ResetAt:   time.Unix((index+1)*windowSeconds, 0),
	}, nil
}

// ScopeResult is the outcome of checking every rule of one scope.
type ScopeResult struct {
	Scope  string
	Result Result
}

// CheckScope counts the request against every rule of a scope. The result is
// the first rejecting rule, or the first rule when all of them admit it.
func (l *Limiter) CheckScope(ctx context.Context, clientID string, scope Scope) (ScopeResult, error) {
	out := ScopeResult{Scope: scope.Name}
	for i, rule := range scope.Rules {
		key := clientID + ":" + scope.Name + ":" + strconv.FormatInt(rule.WindowSeconds, 10)
		result, err := l.CheckAndIncrement(ctx, key, rule.Limit, rule.WindowSeconds)
		if err != nil {
			return ScopeResult{}, err
		}
		if i == 0 || (!result.Allowed && out.Result.Allowed) {
			out.Result = result
		}
	}
	return out, nil
}

func (l *Limiter) Now() time.Time {
	return l.now()
}

func (l *Limiter) Size(ctx context.Context) (int, error) {
	return l.store.Size(ctx)
}

func (l *Limiter) Clear(ctx context.Context) error {
	return l.store.Clear(ctx)
}

func windowKey(key string, index int64) string {
	return key + ":" + strconv.FormatInt(index, 10)
}
