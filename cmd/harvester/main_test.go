package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/config"
	"github.com/JakeFAU/paper-harvester/internal/crawler"
	"github.com/JakeFAU/paper-harvester/internal/fetcher/headless"
	restyfetcher "github.com/JakeFAU/paper-harvester/internal/fetcher/resty"
	"github.com/JakeFAU/paper-harvester/internal/policy/ratelimit"
)

func conferenceSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ndss2025/accepted-papers/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/about/">About</a>
<a href="/ndss-paper/attacks/">one</a><a href="/ndss-paper/fuzzing/">two</a>
<a href="/ndss-paper/attacks/">dup</a></body></html>`))
	})
	mux.HandleFunc("/ndss-paper/attacks/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(paperPage("Supply Chain Attacks on Package Registries")))
	})
	mux.HandleFunc("/ndss-paper/fuzzing/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(paperPage("Faster Kernel Fuzzing")))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func paperPage(title string) string {
	return `<html><body><h1 class="entry-title">` + title + `</h1>
<div class="entry-content">
<p>Alice Smith (Example University), Bob Lee (Example Institute)</p>
<div class="paper-data"><p>` + strings.Repeat("We study an interesting problem in depth. ", 4) + `</p></div>
<a href="/files/paper.pdf">Paper</a>
</div></body></html>`
}

func writeConfig(t *testing.T, listingURL, outDir string) string {
	t.Helper()
	cfg := fmt.Sprintf(`harvest:
  periods:
    - period: 2025
      listing_url: %s/ndss2025/accepted-papers/
  concurrency: 2
  task_delay: 0s
  period_delay: 0s
http:
  timeout: 5s
  max_attempts: 1
  backoff: 0s
classify:
  keywords: ["supply chain", "registry"]
  basename: filtered
storage:
  backend: local
  base_dir: %s
output:
  basename: papers
logging:
  development: false
`, listingURL, outDir)
	path := filepath.Join(t.TempDir(), "harvester.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestCrawlThenClassify(t *testing.T) {
	srv := conferenceSite(t)
	outDir := t.TempDir()
	cfgPath := writeConfig(t, srv.URL, outDir)

	out := execute(t, "--config", cfgPath, "crawl")
	assert.Contains(t, out, "NDSS 2025: 2 papers")
	assert.Contains(t, out, "Harvested 2 papers across 1 periods")

	for _, name := range []string{"papers_2025.json", "papers_all.json", "papers_all.md", "papers_all.csv"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	raw, err := os.ReadFile(filepath.Join(outDir, "papers_all.json"))
	require.NoError(t, err)
	var byPeriod map[string][]map[string]any
	require.NoError(t, json.Unmarshal(raw, &byPeriod))
	require.Len(t, byPeriod["2025"], 2)

	out = execute(t, "--config", cfgPath, "classify")
	assert.Contains(t, out, "Classified 2 papers")

	raw, err = os.ReadFile(filepath.Join(outDir, "filtered.json"))
	require.NoError(t, err)
	var res struct {
		Filtered   map[string][]map[string]any `json:"filtered_papers"`
		Statistics struct {
			TotalPapers    int `json:"total_papers"`
			FilteredPapers int `json:"filtered_papers"`
		} `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, 2, res.Statistics.TotalPapers)
	assert.Equal(t, 1, res.Statistics.FilteredPapers)
	require.Len(t, res.Filtered["2025"], 1)
	assert.Equal(t, "Supply Chain Attacks on Package Registries", res.Filtered["2025"][0]["title"])
	assert.FileExists(t, filepath.Join(outDir, "filtered.md"))
	assert.FileExists(t, filepath.Join(outDir, "filtered.csv"))
}

func TestClassifyMissingInput(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1", t.TempDir())

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "classify", "--input", filepath.Join(t.TempDir(), "nope.json")})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open harvest")
}

func TestCrawlRejectsUnknownPeriod(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1", t.TempDir())

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "crawl", "--period", "1999"})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestResolveRunID(t *testing.T) {
	t.Parallel()

	id, err := resolveRunID("")
	require.NoError(t, err)
	assert.Len(t, id, 36)

	given := "0190b5a4-6c2e-7c1a-9f00-000000000001"
	id, err = resolveRunID(given)
	require.NoError(t, err)
	assert.Equal(t, given, id)

	_, err = resolveRunID("run-1")
	require.Error(t, err)
}

func TestBuildFetcher(t *testing.T) {
	t.Parallel()

	logger := zap.NewNop()
	base := config.HTTPConfig{Timeout: time.Second, MaxAttempts: 2, Backoff: time.Millisecond}

	tests := []struct {
		name   string
		mutate func(*config.HTTPConfig)
		want   any
	}{
		{"colly", func(*config.HTTPConfig) {}, &crawler.RetryingFetcher{}},
		{"resty", func(c *config.HTTPConfig) { c.Backend = config.BackendResty }, &restyfetcher.Fetcher{}},
		{"chromedp", func(c *config.HTTPConfig) { c.Backend = config.BackendChromedp }, &crawler.RetryingFetcher{}},
		{"render fallback", func(c *config.HTTPConfig) { c.Headless.Fallback = true }, &headless.Fallback{}},
		{"rate limited", func(c *config.HTTPConfig) {
			c.RateLimitRPS = 5
			c.RateLimitBurst = 1
		}, &ratelimit.Fetcher{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			f, release, err := buildFetcher(cfg, logger)
			require.NoError(t, err)
			t.Cleanup(func() { _ = release() })
			assert.IsType(t, tt.want, f)
		})
	}
}
