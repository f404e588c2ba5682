package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Bucket is the KV bucket name for cached responses.
const Bucket = "RESPONSE_CACHE"

// bucketTTL physically removes rows well after their logical expiry.
// Reads filter on Entry.ExpiresAt; this only bounds storage growth.
const bucketTTL = 7 * 24 * time.Hour

// KVStore persists cache entries in a NATS JetStream KV bucket.
type KVStore struct {
	bucket jetstream.KeyValue
}

// NewKVStore creates the cache bucket if needed and returns a store.
func NewKVStore(ctx context.Context, js jetstream.JetStream) (*KVStore, error) {
	// CreateOrUpdateKeyValue is idempotent and handles race conditions
	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      Bucket,
		Description: "Content-addressed generation response cache",
		TTL:         bucketTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}

	return &KVStore{bucket: bucket}, nil
}

// entryKey builds the KV key for a (contentHash, docType) pair.
func entryKey(contentHash, docType string) string {
	return fmt.Sprintf("%s.%s", contentHash, docType)
}

// Get returns the entry for a key, or (nil, nil) when none exists.
func (s *KVStore) Get(ctx context.Context, contentHash, docType string) (*Entry, error) {
	kvEntry, err := s.bucket.Get(ctx, entryKey(contentHash, docType))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(kvEntry.Value(), &entry); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}

	return &entry, nil
}

// Put upserts the entry for a key. Last writer wins.
func (s *KVStore) Put(ctx context.Context, contentHash, docType string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if _, err := s.bucket.Put(ctx, entryKey(contentHash, docType), data); err != nil {
		return fmt.Errorf("put entry: %w", err)
	}

	return nil
}
