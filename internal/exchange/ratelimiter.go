package exchange

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket sized to the Coinbase API budget. One bucket
// covers both the brokerage and public exchange hosts: the budget is
// per-key, and the process holds a single key.
type RateLimiter struct {
	mu       sync.Mutex
	capacity int
	tokens   int
	interval time.Duration
	last     time.Time
}

// NewRateLimiter allows capacity requests per interval, bursting up to
// capacity.
func NewRateLimiter(capacity int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		capacity: capacity,
		tokens:   capacity,
		interval: interval,
		last:     time.Now(),
	}
}

// Wait consumes one token, blocking until one is available or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := r.take()
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// take refills earned tokens, then either consumes one or reports how long
// until the next token accrues.
func (r *RateLimiter) take() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	earned := int(now.Sub(r.last) / r.interval)
	if earned > 0 {
		r.tokens += earned
		if r.tokens > r.capacity {
			r.tokens = r.capacity
		}
		r.last = r.last.Add(time.Duration(earned) * r.interval)
	}

	if r.tokens > 0 {
		r.tokens--
		return 0, true
	}
	return r.interval - now.Sub(r.last), false
}
