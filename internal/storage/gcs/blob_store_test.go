package gcs_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/JakeFAU/paper-harvester/internal/storage/gcs"
)

func newTestClient(t *testing.T, handler http.Handler) *storage.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(context.Background(),
		option.WithEndpoint(server.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := gcs.New(nil, gcs.Config{Bucket: "b"})
	assert.Error(t, err)

	client := newTestClient(t, http.NotFoundHandler())
	_, err = gcs.New(client, gcs.Config{})
	assert.Error(t, err)

	_, err = gcs.Open(context.Background(), gcs.Config{})
	assert.ErrorContains(t, err, "bucket name is required")
}

func TestPutObjectUploadsWithPrefix(t *testing.T) {
	t.Parallel()

	objectData := []byte(`{"2025": []}`)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/upload/storage/v1/b/papers-bucket/o")
		assert.Equal(t, "harvest/ndss_papers_2025.json", r.URL.Query().Get("name"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), string(objectData))
		assert.Contains(t, string(body), "application/json")

		fmt.Fprintln(w, `{"name": "harvest/ndss_papers_2025.json", "bucket": "papers-bucket"}`)
	})

	store, err := gcs.New(newTestClient(t, handler), gcs.Config{Bucket: "papers-bucket", Prefix: "/harvest/"})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "ndss_papers_2025.json", "application/json", objectData)
	require.NoError(t, err)
	assert.Equal(t, "gs://papers-bucket/harvest/ndss_papers_2025.json", uri)
	assert.NoError(t, store.Close())
}

func TestPutObjectServerError(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	store, err := gcs.New(newTestClient(t, handler), gcs.Config{Bucket: "papers-bucket"})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "report.md", "text/markdown", []byte("# report"))
	assert.Error(t, err)

	_, err = store.PutObject(context.Background(), " ", "text/markdown", nil)
	assert.ErrorContains(t, err, "path is required")
}

func TestOpenChecksBucket(t *testing.T) {
	t.Parallel()

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/b/papers-bucket"))
		fmt.Fprintln(w, `{"name": "papers-bucket"}`)
	}))
	t.Cleanup(ok.Close)

	store, err := gcs.Open(context.Background(), gcs.Config{Bucket: "papers-bucket"},
		option.WithEndpoint(ok.URL+"/storage/v1/"), option.WithoutAuthentication())
	require.NoError(t, err)
	assert.NoError(t, store.Close())

	missing := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(missing.Close)

	_, err = gcs.Open(context.Background(), gcs.Config{Bucket: "absent"},
		option.WithEndpoint(missing.URL+"/storage/v1/"), option.WithoutAuthentication())
	assert.ErrorContains(t, err, `failed to get GCS bucket "absent"`)
}
