package verifycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"recmatch/internal/logging"
)

// ErrQuotaExceeded is returned by a Store when a write would exceed its
// size or entry quota.
var ErrQuotaExceeded = errors.New("cache store quota exceeded")

// Entry is a cached payload with its lifetime bounds.
type Entry struct {
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the durable tier consumed by the cache. Implementations report
// quota rejection with ErrQuotaExceeded so the cache can evict and retry.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key string) error
	Count(ctx context.Context) (int, error)
	// DeleteOldest removes up to n entries ordered by creation time and
	// returns how many were removed.
	DeleteOldest(ctx context.Context, n int) (int, error)
}

// Cache is the two-tier verification cache. The zero value is not usable;
// construct with New. A nil store leaves only the fast tier active.
type Cache struct {
	mu     sync.Mutex
	fast   map[string]Entry
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source (useful for expiry tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache backed by the supplied durable store, which may be nil.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		fast:   make(map[string]Entry),
		store:  store,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "verifycache")
	return c
}

// Get returns the cached payload for key, or false when the key is absent
// or expired. Expired entries are removed from both tiers.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.fast[key]; ok {
		if entry.ExpiresAt.After(now) {
			c.mu.Unlock()
			return entry.Payload, true
		}
		delete(c.fast, key)
	}
	c.mu.Unlock()

	if c.store == nil {
		return nil, false
	}
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("durable cache read failed", logging.String("key", key), logging.Error(err))
		return nil, false
	}
	if entry == nil {
		return nil, false
	}
	if !entry.ExpiresAt.After(now) {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Debug("expired entry removal failed", logging.String("key", key), logging.Error(err))
		}
		return nil, false
	}

	c.mu.Lock()
	c.fast[key] = *entry
	c.mu.Unlock()
	return entry.Payload, true
}

// Put stores payload under key in both tiers with the supplied TTL. When
// the durable store rejects the write for quota reasons, the oldest third
// of its entries is evicted and the write retried once.
func (c *Cache) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key required")
	}
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %v", ttl)
	}
	now := c.now()
	entry := Entry{
		Key:       key,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	c.mu.Lock()
	c.fast[key] = entry
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	err := c.store.Put(ctx, entry)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		return fmt.Errorf("durable cache write: %w", err)
	}

	if evictErr := c.evictOldestThird(ctx); evictErr != nil {
		return fmt.Errorf("durable cache eviction: %w", evictErr)
	}
	if err := c.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("durable cache write after eviction: %w", err)
	}
	return nil
}

// Forget removes a key from both tiers.
func (c *Cache) Forget(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.fast, key)
	c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, key)
}

func (c *Cache) evictOldestThird(ctx context.Context) error {
	count, err := c.store.Count(ctx)
	if err != nil {
		return err
	}
	n := count / 3
	if n < 1 {
		n = 1
	}
	removed, err := c.store.DeleteOldest(ctx, n)
	if err != nil {
		return err
	}
	c.logger.Debug("evicted oldest cache entries",
		logging.Int("requested", n),
		logging.Int("removed", removed))
	return nil
}
