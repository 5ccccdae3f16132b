package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedFetcher struct {
	errs  []error
	calls int
}

func (f *scriptedFetcher) Fetch(_ context.Context, req FetchRequest) (FetchResponse, error) {
	f.calls++
	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return FetchResponse{}, f.errs[f.calls-1]
	}
	return FetchResponse{URL: req.URL, StatusCode: 200, Body: []byte("ok")}, nil
}

func recordSleeps(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func TestLinearRetryPolicy(t *testing.T) {
	t.Parallel()

	p := NewLinearRetryPolicy(3, 2*time.Second)
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 2*time.Second, p.Backoff(0))

	boom := errors.New("boom")
	assert.True(t, p.ShouldRetry(boom, 1))
	assert.True(t, p.ShouldRetry(boom, 2))
	assert.False(t, p.ShouldRetry(boom, 3))
	assert.False(t, p.ShouldRetry(nil, 1))
	assert.False(t, p.ShouldRetry(context.Canceled, 1))

	d := NewLinearRetryPolicy(0, -time.Second)
	assert.Equal(t, DefaultMaxAttempts, d.MaxAttempts())
	assert.Zero(t, d.Backoff(2))
}

func TestRetryingFetcherRecovers(t *testing.T) {
	t.Parallel()

	next := &scriptedFetcher{errs: []error{errors.New("503"), errors.New("reset")}}
	var waits []time.Duration
	var observed []int
	f := NewRetryingFetcher(next, NewLinearRetryPolicy(3, time.Second),
		WithRetrySleep(recordSleeps(&waits)),
		WithAttemptObserver(func(_ string, attempt int, _ error) { observed = append(observed, attempt) }),
	)

	resp, err := f.Fetch(context.Background(), FetchRequest{URL: "https://example.org/a"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Attempts)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
	assert.Equal(t, []int{1, 2, 3}, observed)
}

func TestRetryingFetcherExhausts(t *testing.T) {
	t.Parallel()

	last := errors.New("still down")
	next := &scriptedFetcher{errs: []error{errors.New("down"), errors.New("down"), last}}
	var waits []time.Duration
	f := NewRetryingFetcher(next, NewLinearRetryPolicy(3, time.Second), WithRetrySleep(recordSleeps(&waits)))

	_, err := f.Fetch(context.Background(), FetchRequest{URL: "https://example.org/b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, last)
	assert.Equal(t, 3, next.calls)
	assert.Len(t, waits, 2)
}

func TestRetryingFetcherStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	next := &scriptedFetcher{errs: []error{errors.New("down"), errors.New("down")}}
	f := NewRetryingFetcher(next, NewLinearRetryPolicy(3, time.Hour))
	cancel()

	_, err := f.Fetch(ctx, FetchRequest{URL: "https://example.org/c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 1, next.calls)
}

func TestSleepHonorsContext(t *testing.T) {
	t.Parallel()

	require.NoError(t, Sleep(context.Background(), 0))
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
