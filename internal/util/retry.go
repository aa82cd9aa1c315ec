// ABOUTME: Retry utilities for API calls with exponential backoff
// ABOUTME: Backs the OpenAI client's retry loop
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// MaxBackoff caps a single wait between attempts
const MaxBackoff = 30 * time.Second

// CalculateBackoff returns exponential backoff with jitter
// Base delay is doubled each attempt, with random jitter up to 25%
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift (max 30 for safety)
	if attempt > 30 {
		attempt = 30
	}
	// Exponential: 2^attempt * base
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > MaxBackoff || backoff < 0 {
		backoff = MaxBackoff
	}
	// Too small to jitter (rand.Int64N panics on n <= 0)
	if backoff < 2 {
		return backoff
	}
	// Add jitter: -25% to +25% using auto-seeded math/rand/v2
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}

// WaitBackoff sleeps for the backoff of the given attempt, returning early
// with the context error if ctx is done first.
func WaitBackoff(ctx context.Context, baseDelay time.Duration, attempt int) error {
	d := CalculateBackoff(baseDelay, attempt)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
