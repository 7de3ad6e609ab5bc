// Package ratelimiter throttles the command rate of a single client
// connection using a token bucket.
package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate with the semantics the
// server needs: a sustained commands-per-second rate with a burst
// allowance, and context-aware waiting for cancellation during
// shutdown.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing commandsPerSecond sustained with
// up to burst commands served immediately from a full bucket.
//
// commandsPerSecond = 0 disables limiting.
func New(commandsPerSecond, burst uint) *RateLimiter {
	if commandsPerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = commandsPerSecond
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(commandsPerSecond), int(burst)),
	}
}

// Allow reports whether one command may proceed right now, consuming a
// token when it may.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// AllowN consumes n tokens at once, or none when fewer are available.
func (r *RateLimiter) AllowN(n uint) bool {
	return r.limiter.AllowN(time.Now(), int(n))
}

// Tokens returns the current bucket level. Monitoring only; the value
// may be stale by the time it is read.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
