package cachestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"recmatch/internal/verifycache"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"), opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testEntry(key string, createdAt time.Time) verifycache.Entry {
	return verifycache.Entry{
		Key:       key,
		Payload:   []byte("payload-" + key),
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(time.Hour),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Put(ctx, testEntry("k1", now)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil {
		t.Fatal("entry missing")
	}
	if string(entry.Payload) != "payload-k1" {
		t.Errorf("payload = %q", entry.Payload)
	}
	if !entry.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v, want %v", entry.CreatedAt, now)
	}
	if !entry.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expires_at = %v", entry.ExpiresAt)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)
	entry, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil entry, got %+v", entry)
	}
}

func TestStoreUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1000, 0).UTC()

	first := testEntry("k", now)
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("Put: %v", err)
	}
	second := first
	second.Payload = []byte("updated")
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("Put update: %v", err)
	}

	entry, err := store.Get(ctx, "k")
	if err != nil || entry == nil {
		t.Fatalf("Get: %v, %v", entry, err)
	}
	if string(entry.Payload) != "updated" {
		t.Errorf("payload = %q, want updated", entry.Payload)
	}
	if count, _ := store.Count(ctx); count != 1 {
		t.Errorf("count = %d after upsert, want 1", count)
	}
}

func TestStoreQuota(t *testing.T) {
	store := openTestStore(t, WithMaxEntries(2))
	ctx := context.Background()
	now := time.Unix(1000, 0).UTC()

	if err := store.Put(ctx, testEntry("a", now)); err != nil {
		t.Fatalf("Put a: %v", err)
	}
	if err := store.Put(ctx, testEntry("b", now.Add(time.Minute))); err != nil {
		t.Fatalf("Put b: %v", err)
	}

	err := store.Put(ctx, testEntry("c", now.Add(2*time.Minute)))
	if !errors.Is(err, verifycache.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	// Updating an existing key is not limited by the quota.
	if err := store.Put(ctx, testEntry("a", now.Add(3*time.Minute))); err != nil {
		t.Errorf("update under quota failed: %v", err)
	}
}

func TestStoreDeleteOldest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1000, 0).UTC()

	for i, key := range []string{"old", "mid", "new"} {
		if err := store.Put(ctx, testEntry(key, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	removed, err := store.DeleteOldest(ctx, 2)
	if err != nil {
		t.Fatalf("DeleteOldest: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if entry, _ := store.Get(ctx, "old"); entry != nil {
		t.Error("oldest entry survived")
	}
	if entry, _ := store.Get(ctx, "new"); entry == nil {
		t.Error("newest entry removed")
	}
}

func TestStorePruneExpired(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1000, 0).UTC()

	stale := testEntry("stale", base)
	stale.ExpiresAt = base.Add(time.Minute)
	fresh := testEntry("fresh", base)
	fresh.ExpiresAt = base.Add(time.Hour)
	if err := store.Put(ctx, stale); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, fresh); err != nil {
		t.Fatalf("Put: %v", err)
	}

	removed, err := store.PruneExpired(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("PruneExpired: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if count, _ := store.Count(ctx); count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestStoreSchemaVersionGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestStoreClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Put(ctx, testEntry("k", time.Unix(1000, 0).UTC())); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if count, _ := store.Count(ctx); count != 0 {
		t.Errorf("count = %d after Clear", count)
	}
}
