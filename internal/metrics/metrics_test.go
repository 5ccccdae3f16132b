package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if harvesterTasksTotal == nil || harvesterListingsTotal == nil ||
		harvesterFetchAttemptsTotal == nil || httpRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveTask(t *testing.T) {
	Init()
	parsed := harvesterTasksTotal.WithLabelValues("1999", "parsed")
	before := testutil.ToFloat64(parsed)

	ObserveTask(1999, "parsed", 10*time.Millisecond)
	ObserveTask(1999, "parsed", 20*time.Millisecond)
	ObserveTask(1999, "failed", time.Millisecond)

	if got := testutil.ToFloat64(parsed) - before; got != 2 {
		t.Errorf("expected 2 parsed tasks, got %f", got)
	}
	if got := testutil.ToFloat64(harvesterTasksTotal.WithLabelValues("1999", "failed")); got < 1 {
		t.Errorf("expected failed task to be counted, got %f", got)
	}
}

func TestObserveFetchAttempt(t *testing.T) {
	Init()
	ok := harvesterFetchAttemptsTotal.WithLabelValues("attempts.example", "success")
	bad := harvesterFetchAttemptsTotal.WithLabelValues("attempts.example", "error")
	okBefore, badBefore := testutil.ToFloat64(ok), testutil.ToFloat64(bad)

	ObserveFetchAttempt("https://Attempts.example/a", nil)
	ObserveFetchAttempt("https://attempts.example/b", errors.New("boom"))
	ObserveBytes("https://attempts.example/a", 128)
	ObserveBytes("https://attempts.example/a", 0)

	if got := testutil.ToFloat64(ok) - okBefore; got != 1 {
		t.Errorf("expected one successful attempt, got %f", got)
	}
	if got := testutil.ToFloat64(bad) - badBefore; got != 1 {
		t.Errorf("expected one failed attempt, got %f", got)
	}
	if got := testutil.ToFloat64(harvesterBytesTotal.WithLabelValues("attempts.example")); got < 128 {
		t.Errorf("expected bytes to be recorded, got %f", got)
	}
}

func TestActiveWorkersGauge(t *testing.T) {
	Init()
	before := testutil.ToFloat64(harvesterActiveWorkers)
	IncActiveWorkers()
	IncActiveWorkers()
	DecActiveWorkers()
	if got := testutil.ToFloat64(harvesterActiveWorkers) - before; got != 1 {
		t.Errorf("expected gauge delta 1, got %f", got)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://google.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
