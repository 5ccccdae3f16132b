package crawler

import (
	"context"
	"errors"
	"time"
)

// Default fetch retry settings: three attempts, waiting step*attempt between them.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffStep = 2 * time.Second
)

// LinearRetryPolicy retries failed fetches a bounded number of times with a
// delay that grows linearly with the attempt number.
type LinearRetryPolicy struct {
	maxAttempts int
	step        time.Duration
}

// NewLinearRetryPolicy builds a policy. Non-positive values select the defaults;
// a negative step is treated as zero.
func NewLinearRetryPolicy(maxAttempts int, step time.Duration) *LinearRetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if step < 0 {
		step = 0
	}
	return &LinearRetryPolicy{maxAttempts: maxAttempts, step: step}
}

// MaxAttempts returns the total number of attempts including the first.
func (p *LinearRetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// ShouldRetry decides whether another attempt follows a failed attempt
// numbered attempt (1-based).
func (p *LinearRetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Backoff returns the wait after the failed attempt numbered attempt.
func (p *LinearRetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.step * time.Duration(attempt)
}
