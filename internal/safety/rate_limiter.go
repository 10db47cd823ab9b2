package safety

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests to one exchange. It wraps a token bucket and
// slows down after the venue reports throttling.
type RateLimiter struct {
	name        string
	limiter     *rate.Limiter
	nominal     rate.Limit
	minimum     rate.Limit
	burst       int
	backoffs    int
	lastBackoff time.Time
	mutex       sync.Mutex
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given burst
func NewRateLimiter(name string, perSecond float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		name:    name,
		limiter: rate.NewLimiter(limit, burst),
		nominal: limit,
		minimum: limit / 8,
		burst:   burst,
	}
}

// FromInterval builds a limiter from a minimum delay between requests in milliseconds
func FromInterval(name string, intervalMs float64, burst int) *RateLimiter {
	if intervalMs <= 0 {
		return NewRateLimiter(name, 0, burst)
	}
	return NewRateLimiter(name, 1000/intervalMs, burst)
}

// Wait waits until an operation is allowed
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Backoff halves the current rate, not going below an eighth of nominal
func (rl *RateLimiter) Backoff() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if rl.nominal == rate.Inf {
		return
	}
	next := rl.limiter.Limit() / 2
	if next < rl.minimum {
		next = rl.minimum
	}
	rl.limiter.SetLimit(next)
	rl.backoffs++
	rl.lastBackoff = time.Now()
}

// Recover moves the rate back towards nominal after a successful call
func (rl *RateLimiter) Recover() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	current := rl.limiter.Limit()
	if current >= rl.nominal {
		return
	}
	next := current * 2
	if next > rl.nominal {
		next = rl.nominal
	}
	rl.limiter.SetLimit(next)
}

// GetStats returns current statistics about the rate limiter
func (rl *RateLimiter) GetStats() RateLimiterStats {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	return RateLimiterStats{
		Name:        rl.name,
		Burst:       rl.burst,
		Tokens:      rl.limiter.Tokens(),
		Limit:       float64(rl.limiter.Limit()),
		Nominal:     float64(rl.nominal),
		Backoffs:    rl.backoffs,
		LastBackoff: rl.lastBackoff,
	}
}

// RateLimiterStats holds statistics about a rate limiter
type RateLimiterStats struct {
	Name        string
	Burst       int
	Tokens      float64
	Limit       float64
	Nominal     float64
	Backoffs    int
	LastBackoff time.Time
}

// RateLimiterManager shares one limiter per name, so several clients of the
// same exchange draw from one budget
type RateLimiterManager struct {
	limiters map[string]*RateLimiter
	mutex    sync.RWMutex
}

// NewRateLimiterManager creates a new rate limiter manager
func NewRateLimiterManager() *RateLimiterManager {
	return &RateLimiterManager{
		limiters: make(map[string]*RateLimiter),
	}
}

// GetOrCreate gets an existing rate limiter or creates a new one
func (rlm *RateLimiterManager) GetOrCreate(name string, perSecond float64, burst int) *RateLimiter {
	rlm.mutex.RLock()
	if rl, exists := rlm.limiters[name]; exists {
		rlm.mutex.RUnlock()
		return rl
	}
	rlm.mutex.RUnlock()

	rlm.mutex.Lock()
	defer rlm.mutex.Unlock()

	// Double-check after acquiring write lock
	if rl, exists := rlm.limiters[name]; exists {
		return rl
	}

	rl := NewRateLimiter(name, perSecond, burst)
	rlm.limiters[name] = rl
	return rl
}

// GetStats returns statistics for all rate limiters
func (rlm *RateLimiterManager) GetStats() []RateLimiterStats {
	rlm.mutex.RLock()
	defer rlm.mutex.RUnlock()

	stats := make([]RateLimiterStats, 0, len(rlm.limiters))
	for _, rl := range rlm.limiters {
		stats = append(stats, rl.GetStats())
	}
	return stats
}
