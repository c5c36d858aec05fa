// Rate limiting for the advancement endpoints, which run real simulation
// work per call. Budgets are fixed windows keyed per dynasty and client,
// so one aggressive client cannot starve another dynasty's operator and
// a shared proxy address still gets a budget per playthrough.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter hands out a fixed budget of calls per window for each key.
// Stale buckets are swept lazily on the next Allow; there is no
// background goroutine to leak when a server is torn down in tests.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	swept   time.Time
}

type bucket struct {
	remaining int
	resetAt   time.Time
}

// NewRateLimiter allows limit calls per window for each distinct key.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		swept:   time.Now(),
	}
}

// Allow consumes one call from the key's budget. A key past its window
// reset gets a fresh budget.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweep(now)

	b, ok := rl.buckets[key]
	if !ok || now.After(b.resetAt) {
		rl.buckets[key] = &bucket{remaining: rl.limit - 1, resetAt: now.Add(rl.window)}
		return true
	}
	if b.remaining > 0 {
		b.remaining--
		return true
	}
	return false
}

// RetryAfter returns whole seconds until the key's window resets,
// rounded up. Zero for an unknown or already-reset key.
func (rl *RateLimiter) RetryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		return 0
	}
	left := time.Until(b.resetAt)
	if left <= 0 {
		return 0
	}
	return int(left.Seconds()) + 1
}

// sweep drops expired buckets. Runs at most once per window; the caller
// holds the lock.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.swept) < rl.window {
		return
	}
	rl.swept = now
	for key, b := range rl.buckets {
		if now.After(b.resetAt) {
			delete(rl.buckets, key)
		}
	}
}

// RateLimitMiddleware enforces the limiter for one dynasty's control
// endpoints. Keys combine the dynasty with the client address, so two
// operators driving different playthroughs never share a budget.
// Responds 429 with a Retry-After header when the budget is spent.
func RateLimitMiddleware(rl *RateLimiter, dynasty string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := dynasty + "|" + clientAddr(r)
		if !rl.Allow(key) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(key)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientAddr identifies the caller: the first X-Forwarded-For entry when
// a proxy set one, otherwise the remote address with its port stripped.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		addr = addr[:i]
	}
	return addr
}
