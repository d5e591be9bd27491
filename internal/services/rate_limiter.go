package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

const AnonymousClient = "anonymous"

type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type RateLimiter interface {
	Check(identifier string) RateLimitResult
	Sweep(now time.Time) int
	StartJanitor(ctx context.Context, interval time.Duration)
}

type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

type fixedWindowLimiter struct {
	mu          sync.Mutex
	entries     map[string]*rateLimitEntry
	window      time.Duration
	maxRequests int
	now         func() time.Time
}

func NewRateLimiter(window time.Duration, maxRequests int) RateLimiter {
	return newFixedWindowLimiter(window, maxRequests, time.Now)
}

func newFixedWindowLimiter(window time.Duration, maxRequests int, now func() time.Time) *fixedWindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if maxRequests <= 0 {
		maxRequests = 30
	}
	return &fixedWindowLimiter{
		entries:     make(map[string]*rateLimitEntry),
		window:      window,
		maxRequests: maxRequests,
		now:         now,
	}
}

// Check implements RateLimiter. Rejected requests still count against the window.
func (l *fixedWindowLimiter) Check(identifier string) RateLimitResult {
	key := "rl:" + identifier
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		entry = &rateLimitEntry{count: 1, resetAt: now.Add(l.window)}
		l.entries[key] = entry
		return RateLimitResult{Allowed: true, Remaining: l.maxRequests - 1, ResetAt: entry.resetAt}
	}

	entry.count++
	if entry.count > l.maxRequests {
		return RateLimitResult{Allowed: false, Remaining: 0, ResetAt: entry.resetAt}
	}

	return RateLimitResult{Allowed: true, Remaining: l.maxRequests - entry.count, ResetAt: entry.resetAt}
}

// Sweep implements RateLimiter. Only entries whose window has elapsed are removed.
func (l *fixedWindowLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, entry := range l.entries {
		if !now.Before(entry.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// StartJanitor implements RateLimiter.
func (l *fixedWindowLimiter) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("🧹 Rate limit janitor stopped")
				return
			case <-ticker.C:
				if removed := l.Sweep(l.now()); removed > 0 {
					log.Printf("🧹 Removed %d expired rate limit entries\n", removed)
				}
			}
		}
	}()
}

func (l *fixedWindowLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ClientIdentifier derives the rate-limit key from an X-Forwarded-For value.
func ClientIdentifier(forwardedFor string) string {
	first, _, _ := strings.Cut(forwardedFor, ",")
	if ip := strings.TrimSpace(first); ip != "" {
		return ip
	}
	return AnonymousClient
}
