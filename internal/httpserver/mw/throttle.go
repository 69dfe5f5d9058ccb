package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/dashlink/internal/netutil"
)

// ThrottleConfig sizes the per-client token bucket applied to every
// request, ahead of the per-action budgets of the API.
type ThrottleConfig struct {
	Burst         int
	RefillPerMin  int
	MaxEntries    int
	SweepInterval time.Duration
	IdleTTL       time.Duration
	TrustProxy    bool // resolve the client from X-Forwarded-For
}

type bucket struct {
	mu       sync.Mutex
	tokens   float64
	lastRef  time.Time
	lastSeen time.Time
}

type throttle struct {
	cfg       ThrottleConfig
	rate      float64 // tokens per second
	capacity  float64
	now       func() time.Time
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newThrottle(cfg ThrottleConfig, now func() time.Time) *throttle {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillPerMin < 1 {
		cfg.RefillPerMin = 1
	}
	return &throttle{
		cfg:       cfg,
		rate:      float64(cfg.RefillPerMin) / 60.0,
		capacity:  float64(cfg.Burst),
		now:       now,
		buckets:   make(map[string]*bucket, 1024),
		lastSweep: now(),
	}
}

func (t *throttle) bucketFor(key string, now time.Time) *bucket {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastSweep) >= t.cfg.SweepInterval ||
		(t.cfg.MaxEntries > 0 && len(t.buckets) >= t.cfg.MaxEntries) {
		t.sweepLocked(now)
	}
	b := t.buckets[key]
	if b == nil {
		b = &bucket{tokens: t.capacity, lastRef: now, lastSeen: now}
		t.buckets[key] = b
	}
	return b
}

// take consumes one token. When none is left it returns how many seconds
// the client should wait.
func (t *throttle) take(key string) (ok bool, remaining int, retryAfter int) {
	now := t.now()
	b := t.bucketFor(key, now)

	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.lastRef).Seconds(); elapsed > 0 {
		b.tokens = math.Min(t.capacity, b.tokens+elapsed*t.rate)
		b.lastRef = now
	}
	b.lastSeen = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true, int(math.Floor(b.tokens)), 0
	}
	sec := int(math.Ceil((1.0 - b.tokens) / t.rate))
	return false, 0, max(sec, 1)
}

func (t *throttle) sweepLocked(now time.Time) {
	for key, b := range t.buckets {
		if now.Sub(b.lastSeen) > t.cfg.IdleTTL {
			delete(t.buckets, key)
		}
	}
	t.lastSweep = now
}

// Throttle rejects clients that exhaust their bucket with 429 and a
// Retry-After header.
func Throttle(cfg ThrottleConfig) func(http.Handler) http.Handler {
	return throttleWithClock(cfg, time.Now)
}

func throttleWithClock(cfg ThrottleConfig, now func() time.Time) func(http.Handler) http.Handler {
	t := newThrottle(cfg, now)
	limit := strconv.Itoa(t.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retry := t.take(netutil.ClientIP(r, t.cfg.TrustProxy))
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
