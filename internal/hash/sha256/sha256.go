// Package sha256 names archived pages by the SHA-256 digest of their body.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hasher implements crawler.Hasher using SHA-256.
type Hasher struct {
	length int
}

// Option customizes a Hasher.
type Option func(*Hasher)

// WithLength truncates digests to n hex characters. Values outside (0, 64)
// keep the full digest.
func WithLength(n int) Option {
	return func(h *Hasher) {
		h.length = n
	}
}

// New returns a SHA-256 hasher.
func New(opts ...Option) *Hasher {
	h := &Hasher{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash returns the hex digest of data. Empty pages are rejected because they
// would all share one archive name.
func (h *Hasher) Hash(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("hash: empty body")
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if h.length > 0 && h.length < len(digest) {
		digest = digest[:h.length]
	}
	return digest, nil
}
