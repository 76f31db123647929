package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
)

type manualClock struct{ t time.Time }

func (c *manualClock) Now() time.Time { return c.t }

func openTestBolt(t *testing.T, clock *manualClock) *boltStore {
	t.Helper()
	raw, err := openBolt(filepath.Join(t.TempDir(), "emitted.db"), Options{
		TTL:             time.Hour,
		CleanupInterval: 30 * time.Minute,
		Now:             clock.Now,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := raw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreMarksAndExpiresEmittedIDs(t *testing.T) {
	clock := &manualClock{t: time.Date(2023, 6, 8, 12, 0, 0, 0, time.UTC)}
	store := openTestBolt(t, clock)
	id := domain.HashURL("https://wire.example/story")

	emitted, err := store.Emitted(id)
	if err != nil || emitted {
		t.Fatalf("expected unseen id, emitted=%v err=%v", emitted, err)
	}
	if err := store.MarkEmitted(id); err != nil {
		t.Fatalf("MarkEmitted: %v", err)
	}
	emitted, err = store.Emitted(id)
	if err != nil || !emitted {
		t.Fatalf("expected id marked, emitted=%v err=%v", emitted, err)
	}

	clock.t = clock.t.Add(2 * time.Hour)
	emitted, err = store.Emitted(id)
	if err != nil {
		t.Fatalf("Emitted after expiry: %v", err)
	}
	if emitted {
		t.Fatalf("expected id to expire")
	}
}

func TestBoltStoreCleanupSweepsExpiredKeys(t *testing.T) {
	clock := &manualClock{t: time.Date(2023, 6, 8, 12, 0, 0, 0, time.UTC)}
	store := openTestBolt(t, clock)

	for _, u := range []string{"https://a.example", "https://b.example", "https://c.example"} {
		if err := store.MarkEmitted(domain.HashURL(u)); err != nil {
			t.Fatalf("MarkEmitted: %v", err)
		}
	}
	if n := store.count(); n != 3 {
		t.Fatalf("expected 3 keys, got %d", n)
	}

	clock.t = clock.t.Add(90 * time.Minute)
	fresh := domain.HashURL("https://d.example")
	if err := store.MarkEmitted(fresh); err != nil {
		t.Fatalf("MarkEmitted: %v", err)
	}
	if n := store.count(); n != 1 {
		t.Fatalf("expected sweep to leave 1 key, got %d", n)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkEmitted("x"); err != nil {
		t.Fatalf("noop MarkEmitted: %v", err)
	}
	if emitted, _ := store.Emitted("x"); emitted {
		t.Fatalf("noop store must never report emitted ids")
	}
}

func TestNewStoreRejectsUnknownBackends(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected missing path error")
	}
}
