// Package ratelimit provides client-side pacing for API calls using a token
// bucket algorithm.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// NotifyFunc is called when a caller is about to wait a noticeable time for
// capacity. cooldown is true when the wait comes from a server-requested
// cooldown rather than an empty bucket.
type NotifyFunc func(wait time.Duration, cooldown bool)

// RateLimiter implements a token bucket rate limiter.
// It allows bursts up to maxTokens, then refills at refillRate tokens/second.
// A nil *RateLimiter never blocks.
type RateLimiter struct {
	tokens        float64   // Current number of tokens available
	maxTokens     float64   // Maximum bucket capacity
	refillRate    float64   // Tokens added per second
	lastRefill    time.Time // Last time tokens were refilled
	cooldownUntil time.Time // No tokens are handed out before this instant
	lastNotify    time.Time
	notify        NotifyFunc
	mu            sync.Mutex
}

// NewRateLimiter creates a new rate limiter.
//
// Parameters:
//   - tokensPerSecond: Rate at which tokens are added (e.g., 10.0 for 10 requests/second)
//   - burstSize: Maximum tokens that can accumulate (allows brief bursts)
//
// A non-positive tokensPerSecond disables limiting and returns nil.
func NewRateLimiter(tokensPerSecond float64, burstSize float64) *RateLimiter {
	if tokensPerSecond <= 0 {
		return nil
	}
	if burstSize < 1 {
		burstSize = 1
	}
	return &RateLimiter{
		tokens:     burstSize, // Start with full bucket
		maxTokens:  burstSize,
		refillRate: tokensPerSecond,
		lastRefill: time.Now(),
	}
}

// SetNotifyFunc registers a callback for long waits. Pass nil to clear it.
func (rl *RateLimiter) SetNotifyFunc(fn NotifyFunc) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	rl.notify = fn
	rl.mu.Unlock()
}

// Wait blocks until a token is available or context is cancelled.
// Returns the context error if the context is cancelled before a token becomes available.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return ctx.Err()
	}

	// Try immediate acquire first
	if rl.tryAcquire() {
		return nil
	}

	if cd := rl.CooldownRemaining(); cd > 0 {
		rl.maybeNotify(cd, true)
	} else {
		rl.maybeNotify(rl.timeUntilNextToken(), false)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if rl.tryAcquire() {
			return nil
		}

		waitDuration := rl.CooldownRemaining()
		if waitDuration == 0 {
			waitDuration = rl.timeUntilNextToken()
		}
		if waitDuration <= 0 {
			waitDuration = time.Millisecond
		}

		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (rl *RateLimiter) maybeNotify(wait time.Duration, cooldown bool) {
	if wait < WaitNotifyThreshold {
		return
	}
	rl.mu.Lock()
	fn := rl.notify
	fire := fn != nil && time.Since(rl.lastNotify) > WaitNotifyInterval
	if fire {
		rl.lastNotify = time.Now()
	}
	rl.mu.Unlock()

	if fire {
		fn(wait, cooldown)
	}
}

// refillLocked adds tokens for the time elapsed since the last refill.
// Caller must hold rl.mu.
func (rl *RateLimiter) refillLocked(now time.Time) {
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}

// tryAcquire attempts to acquire one token without blocking.
func (rl *RateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.refillLocked(now)

	if now.Before(rl.cooldownUntil) {
		return false
	}

	if rl.tokens >= 1.0 {
		rl.tokens -= 1.0
		return true
	}
	return false
}

// timeUntilNextToken calculates how long to wait until at least one token is available.
func (rl *RateLimiter) timeUntilNextToken() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	tokensNeeded := 1.0 - rl.tokens
	if tokensNeeded <= 0 {
		return 0
	}

	secondsNeeded := tokensNeeded / rl.refillRate
	return time.Duration(secondsNeeded * float64(time.Second))
}

// Drain empties the bucket. Used after the server answers 429 so queued
// callers slow down immediately.
func (rl *RateLimiter) Drain() {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = 0
	rl.lastRefill = time.Now()
}

// SetCooldown blocks token hand-out for d. A cooldown never shortens one
// already in effect; d is capped at MaxCooldown.
func (rl *RateLimiter) SetCooldown(d time.Duration) {
	if rl == nil || d <= 0 {
		return
	}
	if d > MaxCooldown {
		d = MaxCooldown
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	until := time.Now().Add(d)
	if until.After(rl.cooldownUntil) {
		rl.cooldownUntil = until
	}
}

// CooldownRemaining returns how long the current cooldown lasts, or 0.
func (rl *RateLimiter) CooldownRemaining() time.Duration {
	if rl == nil {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	d := time.Until(rl.cooldownUntil)
	if d < 0 {
		return 0
	}
	return d
}

// GetCurrentTokens returns the current number of tokens (for testing/debugging).
func (rl *RateLimiter) GetCurrentTokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	elapsed := time.Since(rl.lastRefill).Seconds()
	tokens := rl.tokens + (elapsed * rl.refillRate)
	if tokens > rl.maxTokens {
		tokens = rl.maxTokens
	}
	return tokens
}
