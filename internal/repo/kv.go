package repo

import (
	"context"
	"errors"
	"time"
)

// TTL sentinels, following Redis (and go-redis) conventions.
const (
	// TTLMissing is returned by KV.TTL when the key does not exist.
	TTLMissing time.Duration = -2
	// TTLPersistent is returned by KV.TTL when the key has no expiry.
	TTLPersistent time.Duration = -1
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrWrongType is returned when a string operation targets a set or vice versa.
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")
)

// KV is the key-value backend contract used by the stores in this package.
// It is a subset of Redis semantics: string values, sets of strings, and
// per-key expiry. Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the string stored at key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// MGet returns one entry per key, nil where the key is absent.
	MGet(ctx context.Context, keys ...string) ([]*string, error)
	// Set stores value at key, replacing any previous value of any kind.
	// A ttl <= 0 stores the key without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Del removes the keys; missing keys are ignored.
	Del(ctx context.Context, keys ...string) error
	// SAdd adds members to the set at key, creating it when absent.
	SAdd(ctx context.Context, key string, members ...string) error
	// SRem removes members from the set at key; an emptied set is deleted.
	SRem(ctx context.Context, key string, members ...string) error
	// SMembers returns the members of the set at key (empty when absent).
	SMembers(ctx context.Context, key string) ([]string, error)
	// Expire sets the key's time-to-live; ttl <= 0 deletes the key.
	// Missing keys are left alone.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining time-to-live, TTLMissing or TTLPersistent.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Close releases the backend's resources.
	Close() error
}
