package repo

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// kvHarness is a KV plus a way to move its clock forward.
type kvHarness struct {
	name    string
	kv      KV
	advance func(time.Duration)
}

// fakeClock is a settable clock for SQLiteKV.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newSQLiteHarness(t *testing.T) (*SQLiteKV, *fakeClock) {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	kv := NewSQLiteKV(db)
	kv.now = clock.Now
	t.Cleanup(func() { _ = kv.Close() })
	return kv, clock
}

func newRedisHarness(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	kv := NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = kv.Close() })
	return kv, mr
}

// harnesses returns one fresh harness per backend.
func harnesses(t *testing.T) []kvHarness {
	t.Helper()
	skv, clock := newSQLiteHarness(t)
	rkv, mr := newRedisHarness(t)
	nkv, nclock := newSQLiteHarness(t)
	return []kvHarness{
		{name: "sqlite", kv: skv, advance: clock.Advance},
		{name: "redis", kv: rkv, advance: mr.FastForward},
		{name: "sqlite-namespaced", kv: Namespace(nkv, "authdb:"), advance: nclock.Advance},
	}
}
