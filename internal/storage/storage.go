// Package storage selects the blob store backend that receives reports,
// checkpoints, and archived pages.
package storage

import (
	"context"
	"fmt"

	"github.com/JakeFAU/paper-harvester/internal/crawler"
	"github.com/JakeFAU/paper-harvester/internal/storage/gcs"
	"github.com/JakeFAU/paper-harvester/internal/storage/local"
	"github.com/JakeFAU/paper-harvester/internal/storage/memory"
)

// Backend names.
const (
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendGCS    = "gcs"
)

// Config selects and configures a backend.
type Config struct {
	Backend   string
	BaseDir   string
	GCSBucket string
	Prefix    string
}

// Open returns the configured store and a function releasing its resources.
func Open(ctx context.Context, cfg Config) (crawler.BlobStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case BackendLocal, "":
		store, err := local.New(local.Config{BaseDir: cfg.BaseDir})
		if err != nil {
			return nil, noop, fmt.Errorf("open local store: %w", err)
		}
		return store, noop, nil
	case BackendMemory:
		return memory.NewBlobStore(), noop, nil
	case BackendGCS:
		store, err := gcs.Open(ctx, gcs.Config{Bucket: cfg.GCSBucket, Prefix: cfg.Prefix})
		if err != nil {
			return nil, noop, fmt.Errorf("open gcs store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
