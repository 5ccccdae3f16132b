// Package restyfetcher implements Fetcher on go-resty, delegating the linear
// retry schedule to resty's own retry loop.
package restyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/JakeFAU/paper-harvester/internal/crawler"
)

const defaultTimeout = 30 * time.Second

// Config controls the client and its retry schedule.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

// Fetcher implements crawler.Fetcher. A single Fetch may perform up to
// MaxAttempts requests, waiting Backoff*attempt between them.
type Fetcher struct {
	cfg     Config
	client  *resty.Client
	observe crawler.AttemptObserver
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithAttemptObserver registers a callback run once per request attempt.
func WithAttemptObserver(observe crawler.AttemptObserver) Option {
	return func(f *Fetcher) {
		f.observe = observe
	}
}

// WithTransport swaps the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.client.SetTransport(rt)
	}
}

// New builds a Fetcher.
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = crawler.DefaultMaxAttempts
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	client.SetRetryCount(cfg.MaxAttempts - 1)
	client.SetRetryWaitTime(cfg.Backoff)
	client.SetRetryMaxWaitTime(cfg.Backoff * time.Duration(cfg.MaxAttempts))
	client.SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
		return cfg.Backoff * time.Duration(resp.Request.Attempt), nil
	})
	client.AddRetryCondition(shouldRetry)

	f := &Fetcher{cfg: cfg, client: client}
	for _, opt := range opts {
		opt(f)
	}
	client.AddRetryHook(func(resp *resty.Response, err error) {
		f.report(resp, err)
	})
	return f
}

// Fetch performs a GET with retries.
func (f *Fetcher) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	start := time.Now()
	req := f.client.R().SetContext(ctx)
	for key, values := range request.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := req.Get(request.URL)
	if f.client.RetryCount == 0 || !shouldRetry(resp, err) {
		// retryable outcomes were already reported by the retry hook
		f.report(resp, err)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return crawler.FetchResponse{}, fmt.Errorf("resty fetch canceled: %w", ctxErr)
		}
		return crawler.FetchResponse{}, fmt.Errorf("%w: %s: %w", crawler.ErrRetriesExhausted, request.URL, err)
	}
	if resp.IsError() {
		return crawler.FetchResponse{}, fmt.Errorf("%w: %w", crawler.ErrRetriesExhausted,
			&crawler.StatusError{URL: request.URL, StatusCode: resp.StatusCode()})
	}

	return crawler.FetchResponse{
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode(),
		Headers:    resp.Header().Clone(),
		Body:       resp.Body(),
		Duration:   time.Since(start),
		Attempts:   resp.Request.Attempt,
	}, nil
}

func (f *Fetcher) report(resp *resty.Response, err error) {
	if f.observe == nil || resp == nil || resp.Request == nil {
		return
	}
	if err == nil && resp.IsError() {
		err = &crawler.StatusError{URL: resp.Request.URL, StatusCode: resp.StatusCode()}
	}
	f.observe(resp.Request.URL, resp.Request.Attempt, err)
}

// shouldRetry retries transport failures, per-attempt timeouts included, and
// any error status. A done caller context stops the loop.
func shouldRetry(resp *resty.Response, err error) bool {
	if resp != nil && resp.Request != nil && resp.Request.Context().Err() != nil {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	return resp != nil && resp.IsError()
}
