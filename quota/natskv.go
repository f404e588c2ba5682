package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// CountersBucket is the KV bucket name for premium usage counters.
const CountersBucket = "PREMIUM_USAGE"

// ProfilesBucket is the KV bucket name for user profiles.
const ProfilesBucket = "USER_PROFILES"

// AdminRole is the stored role value that grants the elevated limit.
const AdminRole = "admin"

// KVCounterStore persists usage counters in a NATS JetStream KV bucket.
type KVCounterStore struct {
	bucket jetstream.KeyValue
}

// NewKVCounterStore creates the counters bucket if needed and returns a store.
// The context is used for the initial bucket creation/update operation.
func NewKVCounterStore(ctx context.Context, js jetstream.JetStream) (*KVCounterStore, error) {
	// CreateOrUpdateKeyValue is idempotent and handles race conditions
	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      CountersBucket,
		Description: "Premium usage counters per user and document type",
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}

	return &KVCounterStore{bucket: bucket}, nil
}

// counterKey builds the KV key for a (userID, docType) pair.
// Dots separate the components to enable prefix queries by user.
func counterKey(userID, docType string) string {
	return fmt.Sprintf("%s.%s", userID, docType)
}

// Get returns the counter for a pair, or (nil, nil) when none exists.
func (s *KVCounterStore) Get(ctx context.Context, userID, docType string) (*Counter, error) {
	entry, err := s.bucket.Get(ctx, counterKey(userID, docType))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get counter: %w", err)
	}

	var counter Counter
	if err := json.Unmarshal(entry.Value(), &counter); err != nil {
		return nil, fmt.Errorf("unmarshal counter: %w", err)
	}

	return &counter, nil
}

// Put upserts the counter for a pair. Last writer wins.
func (s *KVCounterStore) Put(ctx context.Context, userID, docType string, c Counter) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal counter: %w", err)
	}

	if _, err := s.bucket.Put(ctx, counterKey(userID, docType), data); err != nil {
		return fmt.Errorf("put counter: %w", err)
	}

	return nil
}

// profile is the stored user profile shape. Only the role matters here.
type profile struct {
	Role string `json:"role"`
}

// KVRoleLookup reads the admin flag from a user profiles KV bucket.
type KVRoleLookup struct {
	bucket jetstream.KeyValue
}

// NewKVRoleLookup binds to the profiles bucket, creating it if needed.
func NewKVRoleLookup(ctx context.Context, js jetstream.JetStream) (*KVRoleLookup, error) {
	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      ProfilesBucket,
		Description: "User profiles including role",
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}

	return &KVRoleLookup{bucket: bucket}, nil
}

// IsAdmin reports whether the stored role for a user is the admin role.
// An unknown user is simply a non-admin, not an error.
func (l *KVRoleLookup) IsAdmin(ctx context.Context, userID string) (bool, error) {
	entry, err := l.bucket.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get profile: %w", err)
	}

	var p profile
	if err := json.Unmarshal(entry.Value(), &p); err != nil {
		return false, fmt.Errorf("unmarshal profile: %w", err)
	}

	return p.Role == AdminRole, nil
}
