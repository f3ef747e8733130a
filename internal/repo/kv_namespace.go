package repo

import (
	"context"
	"time"
)

// Namespaced is a KV view that prepends a fixed prefix to every key. It lets
// several roles share one backend without their keys meeting.
type Namespaced struct {
	kv     KV
	prefix string
}

// Namespace returns a view of kv whose keys all start with prefix. Closing
// the view leaves kv open; its owner closes it.
func Namespace(kv KV, prefix string) *Namespaced {
	return &Namespaced{kv: kv, prefix: prefix}
}

func (n *Namespaced) key(k string) string { return n.prefix + k }

func (n *Namespaced) keys(ks []string) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = n.prefix + k
	}
	return out
}

// Get implements KV.
func (n *Namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.kv.Get(ctx, n.key(key))
}

// MGet implements KV.
func (n *Namespaced) MGet(ctx context.Context, keys ...string) ([]*string, error) {
	return n.kv.MGet(ctx, n.keys(keys)...)
}

// Set implements KV.
func (n *Namespaced) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return n.kv.Set(ctx, n.key(key), value, ttl)
}

// Del implements KV.
func (n *Namespaced) Del(ctx context.Context, keys ...string) error {
	return n.kv.Del(ctx, n.keys(keys)...)
}

// SAdd implements KV.
func (n *Namespaced) SAdd(ctx context.Context, key string, members ...string) error {
	return n.kv.SAdd(ctx, n.key(key), members...)
}

// SRem implements KV.
func (n *Namespaced) SRem(ctx context.Context, key string, members ...string) error {
	return n.kv.SRem(ctx, n.key(key), members...)
}

// SMembers implements KV.
func (n *Namespaced) SMembers(ctx context.Context, key string) ([]string, error) {
	return n.kv.SMembers(ctx, n.key(key))
}

// Expire implements KV.
func (n *Namespaced) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return n.kv.Expire(ctx, n.key(key), ttl)
}

// TTL implements KV.
func (n *Namespaced) TTL(ctx context.Context, key string) (time.Duration, error) {
	return n.kv.TTL(ctx, n.key(key))
}

// Close is a no-op.
func (n *Namespaced) Close() error { return nil }

var _ KV = (*Namespaced)(nil)
