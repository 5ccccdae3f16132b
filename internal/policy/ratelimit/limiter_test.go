package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/paper-harvester/internal/crawler"
)

func TestLimiterWaitPacesSameDomain(t *testing.T) {
	t.Parallel()

	// 10 RPS with burst 1: the second token arrives ~100ms after the first.
	l := New(Config{DefaultRPS: 10, DefaultBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://www.ndss-symposium.org/a"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://www.ndss-symposium.org/b"))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiterDomainsAreIndependent(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 1, DefaultBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://a.example/1"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://b.example/1"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterDisabled(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	start := time.Now()
	for i := 0; i < 50; i++ {
		require.NoError(t, l.Wait(context.Background(), "https://a.example/x"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterWaitCanceled(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 0.001, DefaultBurst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://slow.example/"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "https://slow.example/"))
}

func TestFetcherWaitsThenDelegates(t *testing.T) {
	t.Parallel()

	var seen []string
	next := crawler.FetcherFunc(func(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
		seen = append(seen, req.URL)
		return crawler.FetchResponse{URL: req.URL, StatusCode: 200}, nil
	})
	f := Wrap(next, New(Config{DefaultRPS: 0.001, DefaultBurst: 1}))

	resp, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: "https://a.example/1"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, crawler.FetchRequest{URL: "https://a.example/2"})
	require.Error(t, err)
	assert.Equal(t, []string{"https://a.example/1"}, seen)
}
