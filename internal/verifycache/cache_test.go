package verifycache

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory Store with an optional entry quota.
type memStore struct {
	mu       sync.Mutex
	entries  map[string]Entry
	maxCount int
	gets     int
	puts     int
}

func newMemStore(maxCount int) *memStore {
	return &memStore{entries: make(map[string]Entry), maxCount: maxCount}
}

func (m *memStore) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *memStore) Put(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.maxCount > 0 {
		if _, exists := m.entries[entry.Key]; !exists && len(m.entries) >= m.maxCount {
			return ErrQuotaExceeded
		}
	}
	m.entries[entry.Key] = entry
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

func (m *memStore) DeleteOldest(_ context.Context, n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return m.entries[keys[i]].CreatedAt.Before(m.entries[keys[j]].CreatedAt)
	})
	removed := 0
	for _, k := range keys {
		if removed >= n {
			break
		}
		delete(m.entries, k)
		removed++
	}
	return removed, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestCacheTTLBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache := New(newMemStore(0), WithClock(clock.Now))
	ctx := context.Background()

	if err := cache.Put(ctx, "k", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clock.Advance(59 * time.Minute)
	if _, ok := cache.Get(ctx, "k"); !ok {
		t.Error("entry absent at 59 minutes, want present")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Error("entry present at 61 minutes, want absent")
	}
}

func TestCacheExpiredEntryRemovedLazily(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	store := newMemStore(0)
	cache := New(store, WithClock(clock.Now))
	ctx := context.Background()

	if err := cache.Put(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	clock.Advance(2 * time.Minute)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatal("expired entry returned")
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("expired entry still in durable tier, count=%d", n)
	}
	if _, ok := cache.fast["k"]; ok {
		t.Error("expired entry still in fast tier")
	}
}

func TestCacheDurableHitBackfillsFastTier(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	store := newMemStore(0)
	store.entries["k"] = Entry{
		Key:       "k",
		Payload:   []byte("durable"),
		CreatedAt: clock.Now(),
		ExpiresAt: clock.Now().Add(time.Hour),
	}
	cache := New(store, WithClock(clock.Now))
	ctx := context.Background()

	payload, ok := cache.Get(ctx, "k")
	if !ok || string(payload) != "durable" {
		t.Fatalf("Get = %q, %v", payload, ok)
	}
	before := store.gets
	if _, ok := cache.Get(ctx, "k"); !ok {
		t.Fatal("second Get missed")
	}
	if store.gets != before {
		t.Error("second Get hit the durable tier instead of the fast tier")
	}
}

func TestCacheQuotaEvictionRetry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	store := newMemStore(3)
	cache := New(store, WithClock(clock.Now))
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := cache.Put(ctx, key, []byte(key), time.Hour); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
		clock.Advance(time.Minute)
	}

	// Store is full: this Put must evict the oldest third (1 entry) and retry.
	if err := cache.Put(ctx, "d", []byte("d"), time.Hour); err != nil {
		t.Fatalf("Put over quota: %v", err)
	}
	if _, ok := store.entries["a"]; ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := store.entries["d"]; !ok {
		t.Error("new entry missing after eviction retry")
	}
}

func TestCacheWithoutStore(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cache := New(nil, WithClock(clock.Now))
	ctx := context.Background()

	if err := cache.Put(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if payload, ok := cache.Get(ctx, "k"); !ok || string(payload) != "v" {
		t.Errorf("Get = %q, %v", payload, ok)
	}
}

func TestCachePutValidation(t *testing.T) {
	cache := New(nil)
	if err := cache.Put(context.Background(), "", []byte("v"), time.Hour); err == nil {
		t.Error("empty key accepted")
	}
	if err := cache.Put(context.Background(), "k", []byte("v"), 0); err == nil {
		t.Error("zero ttl accepted")
	}
}

func TestCacheForget(t *testing.T) {
	store := newMemStore(0)
	cache := New(store)
	ctx := context.Background()
	if err := cache.Put(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Forget(ctx, "k"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Error("entry present after Forget")
	}
}
