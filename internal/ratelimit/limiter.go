// Package ratelimit counts user actions per fixed window so abusive
// clients can be turned away before doing expensive work.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// KeyPrefix namespaces every counter key.
const KeyPrefix = "dashlink:ratelimit:"

// Counter is the shared TTL counter backing a Limiter.
type Counter interface {
	// Get returns the current value, 0 when absent or expired.
	Get(ctx context.Context, key string) (int64, error)
	// Incr adds one and sets ttl only if the key did not exist.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, key string) error
}

// Policy is a budget for one action.
type Policy struct {
	Action      string
	MaxAttempts int64
	Window      time.Duration
}

// Budgets applied by the HTTP layer.
var (
	AdminImport    = Policy{Action: "import", MaxAttempts: 5, Window: time.Hour}
	UserLinkCreate = Policy{Action: "user_link_create", MaxAttempts: 20, Window: time.Hour}
	UserLinkImport = Policy{Action: "user_link_import", MaxAttempts: 3, Window: time.Hour}
	IconDownload   = Policy{Action: "icon_download", MaxAttempts: 30, Window: time.Hour}
)

type Limiter struct {
	counter Counter
}

func New(counter Counter) *Limiter {
	return &Limiter{counter: counter}
}

// Key builds the counter key. The identifier is hashed so raw user ids or
// addresses never appear in the key space.
func Key(action, identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	return KeyPrefix + action + ":" + hex.EncodeToString(sum[:])
}

// IsRateLimited returns true once maxAttempts calls happened within the
// window. Calls that are allowed count as an attempt.
func (l *Limiter) IsRateLimited(ctx context.Context, action, identifier string, maxAttempts int64, window time.Duration) (bool, error) {
	key := Key(action, identifier)

	n, err := l.counter.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read rate counter: %w", err)
	}
	if n >= maxAttempts {
		return true, nil
	}
	if _, err := l.counter.Incr(ctx, key, window); err != nil {
		return false, fmt.Errorf("increment rate counter: %w", err)
	}
	return false, nil
}

// Check applies a Policy.
func (l *Limiter) Check(ctx context.Context, p Policy, identifier string) (bool, error) {
	return l.IsRateLimited(ctx, p.Action, identifier, p.MaxAttempts, p.Window)
}

// Increment records an attempt without checking the budget.
func (l *Limiter) Increment(ctx context.Context, action, identifier string, window time.Duration) error {
	if _, err := l.counter.Incr(ctx, Key(action, identifier), window); err != nil {
		return fmt.Errorf("increment rate counter: %w", err)
	}
	return nil
}

// Reset clears the counter.
func (l *Limiter) Reset(ctx context.Context, action, identifier string) error {
	if err := l.counter.Del(ctx, Key(action, identifier)); err != nil {
		return fmt.Errorf("reset rate counter: %w", err)
	}
	return nil
}

// Attempts returns the attempts recorded in the current window.
func (l *Limiter) Attempts(ctx context.Context, action, identifier string) (int64, error) {
	n, err := l.counter.Get(ctx, Key(action, identifier))
	if err != nil {
		return 0, fmt.Errorf("read rate counter: %w", err)
	}
	return n, nil
}
