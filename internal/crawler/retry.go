package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrRetriesExhausted is returned when every attempt of a fetch failed. It
// wraps the last attempt's error.
var ErrRetriesExhausted = errors.New("fetch retries exhausted")

// AttemptObserver is notified after every fetch attempt.
type AttemptObserver func(url string, attempt int, err error)

// RetryingFetcher wraps a Fetcher with a LinearRetryPolicy.
type RetryingFetcher struct {
	next    Fetcher
	policy  *LinearRetryPolicy
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	observe AttemptObserver
}

// RetryOption customizes a RetryingFetcher.
type RetryOption func(*RetryingFetcher)

// WithRetryLogger sets the logger used for attempt diagnostics.
func WithRetryLogger(logger *zap.Logger) RetryOption {
	return func(r *RetryingFetcher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRetrySleep replaces the backoff sleep, mainly for tests.
func WithRetrySleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *RetryingFetcher) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// WithAttemptObserver registers a callback run after each attempt.
func WithAttemptObserver(observe AttemptObserver) RetryOption {
	return func(r *RetryingFetcher) {
		r.observe = observe
	}
}

// NewRetryingFetcher wraps next. A nil policy selects the defaults.
func NewRetryingFetcher(next Fetcher, policy *LinearRetryPolicy, opts ...RetryOption) *RetryingFetcher {
	if policy == nil {
		policy = NewLinearRetryPolicy(DefaultMaxAttempts, DefaultBackoffStep)
	}
	r := &RetryingFetcher{
		next:   next,
		policy: policy,
		logger: zap.NewNop(),
		sleep:  Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch delegates to the wrapped Fetcher until it succeeds or the policy gives up.
func (r *RetryingFetcher) Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := r.next.Fetch(ctx, request)
		if r.observe != nil {
			r.observe(request.URL, attempt, err)
		}
		if err == nil {
			resp.Attempts = attempt
			return resp, nil
		}
		lastErr = err
		if !r.policy.ShouldRetry(err, attempt) {
			break
		}
		wait := r.policy.Backoff(attempt)
		r.logger.Debug("fetch attempt failed; retrying",
			zap.String("url", request.URL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if err := r.sleep(ctx, wait); err != nil {
			return FetchResponse{}, fmt.Errorf("fetch %s canceled: %w", request.URL, err)
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return FetchResponse{}, fmt.Errorf("fetch %s: %w", request.URL, lastErr)
	}
	return FetchResponse{}, fmt.Errorf("%w: %s: %w", ErrRetriesExhausted, request.URL, lastErr)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
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
