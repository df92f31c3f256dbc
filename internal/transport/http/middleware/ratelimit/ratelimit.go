// Package ratelimit provides rate limiting middleware using token bucket algorithm.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// bucket represents a token bucket for rate limiting.
type bucket struct {
	tokens   float64
	lastFill time.Time
	mu       sync.Mutex
}

// Limiter tracks rate limits per client key.
type Limiter struct {
	buckets sync.Map // map[key]*bucket
	now     func() time.Time
}

// New creates a new rate limiter.
func New() *Limiter {
	return &Limiter{now: time.Now}
}

// Allow checks if a request is allowed under the rate limit.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string, perMinute int) bool {
	if perMinute <= 0 {
		return true // 0 = unlimited
	}

	now := l.now()
	val, _ := l.buckets.LoadOrStore(key, &bucket{
		tokens:   float64(perMinute),
		lastFill: now,
	})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	// Refill tokens based on elapsed time
	elapsed := now.Sub(b.lastFill).Seconds()
	refillRate := float64(perMinute) / 60.0 // tokens per second
	b.tokens += elapsed * refillRate
	if b.tokens > float64(perMinute) {
		b.tokens = float64(perMinute) // cap at max capacity
	}
	b.lastFill = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}

// Prune drops buckets untouched for longer than idle.
func (l *Limiter) Prune(idle time.Duration) {
	cutoff := l.now().Add(-idle)
	l.buckets.Range(func(key, val any) bool {
		b := val.(*bucket)
		b.mu.Lock()
		stale := b.lastFill.Before(cutoff)
		b.mu.Unlock()
		if stale {
			l.buckets.Delete(key)
		}
		return true
	})
}

// ByClientIP limits requests per remote address. Requests over the limit are
// passed to limited instead of next.
func ByClientIP(limiter *Limiter, perMinute int, limited http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r), perMinute) {
				w.Header().Set("Retry-After", "60")
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
