// Package cache provides a content-addressed response cache with TTL.
// Identical audit and assessment content hashes to the same key, so repeat
// generations are served without a model call. Caching is a performance
// optimization, not a correctness dependency: an unreachable store is a
// cache miss, never an error.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// DefaultTTL is how long a cached payload stays valid.
const DefaultTTL = 24 * time.Hour

// hashPrefixLimit bounds how much normalized content feeds the digest.
// The total input length is mixed in alongside, so distinct long inputs
// that share a prefix still produce distinct keys.
const hashPrefixLimit = 4096

// Entry is one cached generation result.
type Entry struct {
	// Payload is the parsed, validated result. Never the raw model text.
	Payload string `json:"payload"`

	// Model is the backend-reported model identifier that produced it.
	Model string `json:"model"`

	// ExpiresAt is the logical expiry. A read is valid only while
	// now < ExpiresAt, even if the row has not been physically removed.
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists cache entries keyed by (contentHash, docType) with
// upsert semantics. Last writer wins; there is no version history.
type Store interface {
	// Get returns the entry for a key, or (nil, nil) when none exists.
	Get(ctx context.Context, contentHash, docType string) (*Entry, error)

	// Put upserts the entry for a key.
	Put(ctx context.Context, contentHash, docType string, e Entry) error
}

// Cache wraps a Store with expiry filtering and the miss-on-error policy.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache over the given store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		ttl:    DefaultTTL,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Lookup returns the live entry for a key, or (nil, false) on a miss.
// Expired entries are treated as absent. Store errors are logged and
// reported as misses.
func (c *Cache) Lookup(ctx context.Context, contentHash, docType string) (*Entry, bool) {
	entry, err := c.store.Get(ctx, contentHash, docType)
	if err != nil {
		c.logger.Warn("Cache read failed, treating as miss",
			"doc_type", docType,
			"error", err)
		return nil, false
	}

	if entry == nil || !c.now().Before(entry.ExpiresAt) {
		return nil, false
	}

	return entry, true
}

// Write upserts a validated payload under the key, resetting the expiry.
// Store errors are logged and swallowed; the generation already succeeded.
func (c *Cache) Write(ctx context.Context, contentHash, docType, payload, modelID string) {
	entry := Entry{
		Payload:   payload,
		Model:     modelID,
		ExpiresAt: c.now().Add(c.ttl),
	}

	if err := c.store.Put(ctx, contentHash, docType, entry); err != nil {
		c.logger.Warn("Cache write failed",
			"doc_type", docType,
			"error", err)
	}
}

// ContentHash computes the cache key digest for input content.
// It hashes a bounded prefix of the whitespace-normalized content combined
// with the normalized total length; the length component disambiguates long
// inputs that share a prefix.
func ContentHash(content string) string {
	normalized := strings.Join(strings.Fields(content), " ")

	prefix := normalized
	if len(prefix) > hashPrefixLimit {
		prefix = prefix[:hashPrefixLimit]
	}

	h := sha256.New()
	io.WriteString(h, prefix)
	fmt.Fprintf(h, ":%d", len(normalized))
	return hex.EncodeToString(h.Sum(nil))
}
