package api

import (
	"sync"
	"time"
)

// Token bucket for a single client
type bucket struct {
	tokens     int
	lastRefill time.Time
	lastSeen   time.Time
}

// Rate limiter keeping one token bucket per client key (remote IP). Buckets
// idle for longer than staleAfter are dropped on the next pass.
type RateLimiter struct {
	buckets    map[string]*bucket
	maxToken   int
	refillRate time.Duration
	staleAfter time.Duration
	lastSweep  time.Time
	mutex      sync.Mutex
}

// Constructor method for RateLimiter
func NewRateLimiter(maxToken int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*bucket),
		maxToken:   maxToken,
		refillRate: refillRate,
		staleAfter: 10 * time.Minute,
		lastSweep:  time.Now(),
	}
}

// Method to check if the current request can pass on, by checking the available
// token of the caller's bucket while refill token if needed
func (limiter *RateLimiter) Allow(key string) bool {
	// Use mutex to avoid race condition
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	now := time.Now()
	limiter.sweep(now)

	b, ok := limiter.buckets[key]
	if !ok {
		// First request from this client: bucket starts full
		b = &bucket{tokens: limiter.maxToken, lastRefill: now}
		limiter.buckets[key] = b
	}
	b.lastSeen = now

	// Refill token
	refill := int(now.Sub(b.lastRefill) / limiter.refillRate)
	if refill > 0 {
		b.tokens += refill
		// If tokens exceed max token, we flatten it down
		if b.tokens > limiter.maxToken {
			b.tokens = limiter.maxToken
		}
		b.lastRefill = now
	}

	// Consume token
	if b.tokens > 0 {
		b.tokens--
		return true
	}

	// If no token available, simply refuse
	return false
}

// Drop buckets of clients not seen for staleAfter. Runs at most once per
// staleAfter interval; caller must hold the mutex.
func (limiter *RateLimiter) sweep(now time.Time) {
	if now.Sub(limiter.lastSweep) < limiter.staleAfter {
		return
	}
	for key, b := range limiter.buckets {
		if now.Sub(b.lastSeen) > limiter.staleAfter {
			delete(limiter.buckets, key)
		}
	}
	limiter.lastSweep = now
}
