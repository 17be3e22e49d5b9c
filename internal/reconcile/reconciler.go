package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"recmatch/internal/logging"
	"recmatch/internal/lookup"
	"recmatch/internal/services"
	"recmatch/internal/verifycache"
)

// flight tracks one in-progress reconciliation so duplicate requests for
// the same identity wait on it instead of issuing their own lookups.
type flight struct {
	done chan struct{}
	item Item
}

// Reconciler resolves stubs against a metadata lookup service and caches
// the outcomes. All state is per-instance; independent reconcilers never
// share in-flight markers or cache tiers.
type Reconciler struct {
	lookup lookup.Service
	cache  *verifycache.Cache
	policy Policy
	retry  services.RetryConfig
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error

	mu       sync.Mutex
	inFlight map[string]*flight
}

type Option func(*Reconciler)

// WithCache attaches an outcome cache. Without one every reconciliation
// hits the lookup service.
func WithCache(cache *verifycache.Cache) Option {
	return func(r *Reconciler) {
		r.cache = cache
	}
}

// WithPolicy overrides the default threshold and batching policy.
func WithPolicy(policy Policy) Option {
	return func(r *Reconciler) {
		r.policy = policy.normalized()
	}
}

// WithRetryConfig overrides retry behavior for lookup failures.
func WithRetryConfig(cfg services.RetryConfig) Option {
	return func(r *Reconciler) {
		r.retry = cfg
	}
}

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger.With(logging.String(logging.FieldComponent, "reconcile"))
		}
	}
}

// WithSleep replaces the inter-batch pause, letting tests run pacing
// deterministically.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(r *Reconciler) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// New builds a Reconciler around a lookup service.
func New(svc lookup.Service, opts ...Option) *Reconciler {
	r := &Reconciler{
		lookup:   svc,
		policy:   DefaultPolicy(),
		logger:   logging.NewNop(),
		inFlight: make(map[string]*flight),
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile resolves one stub to an outcome. Cached outcomes are returned
// without touching the lookup service; concurrent calls for the same
// identity share a single resolution. Reconcile never returns an error:
// exhausted retries and panics surface as a StatusFailed item.
func (r *Reconciler) Reconcile(ctx context.Context, stub Stub) Item {
	if stub.Malformed() {
		return Item{
			Stub:       stub,
			Status:     StatusSkipped,
			SkipReason: "missing title",
		}
	}

	identity := stub.Identity()
	if item, ok := r.cachedItem(ctx, identity, stub); ok {
		return item
	}

	fl, leader := r.enter(identity)
	if !leader {
		select {
		case <-fl.done:
			item := fl.item
			item.Stub = stub
			return item
		case <-ctx.Done():
			return Item{Stub: stub, Status: StatusFailed, Error: ctx.Err().Error()}
		}
	}

	item := r.reconcileLocked(ctx, stub)
	fl.item = item
	r.exit(identity, fl)

	r.storeOutcome(ctx, identity, item)
	return item
}

// Flying reports whether a reconciliation for the identity is currently in
// progress. Batch processing uses it to skip stubs already being worked.
func (r *Reconciler) Flying(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inFlight[identity]
	return ok
}

// enter claims the in-flight slot for an identity. The second return is
// true when the caller is the leader and must run the resolution.
func (r *Reconciler) enter(identity string) (*flight, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fl, ok := r.inFlight[identity]; ok {
		return fl, false
	}
	fl := &flight{done: make(chan struct{})}
	r.inFlight[identity] = fl
	return fl, true
}

// exit releases the in-flight slot and wakes any waiters. It runs on every
// leader exit path so a failure never leaves a stale marker.
func (r *Reconciler) exit(identity string, fl *flight) {
	r.mu.Lock()
	delete(r.inFlight, identity)
	r.mu.Unlock()
	close(fl.done)
}

// reconcileLocked runs resolution and classification for the in-flight
// leader. Panics inside the lookup service are contained here so one bad
// stub cannot take down a batch.
func (r *Reconciler) reconcileLocked(ctx context.Context, stub Stub) (item Item) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("reconciliation panicked",
				logging.String("title", stub.Title),
				logging.String("panic", fmt.Sprint(rec)))
			item = Item{Stub: stub, Status: StatusFailed, Error: fmt.Sprintf("panic: %v", rec)}
		}
	}()

	res, err := services.RunWithRetry(ctx, r.retry, func(ctx context.Context) (resolution, error) {
		return r.resolve(ctx, stub)
	})
	if err != nil {
		r.logger.Warn("resolution failed",
			logging.String("title", stub.Title),
			logging.Error(err))
		return Item{Stub: stub, Status: StatusFailed, Error: err.Error()}
	}

	item = r.classify(stub, res)
	r.logger.Info("stub reconciled",
		logging.String("title", stub.Title),
		logging.String("status", string(item.Status)),
		logging.Float64("confidence", item.Confidence),
		logging.String("tier", res.Tier.String()))
	return item
}

// cachedItem looks up a fresh outcome for the identity. Decode failures
// drop the entry and fall through to a live resolution.
func (r *Reconciler) cachedItem(ctx context.Context, identity string, stub Stub) (Item, bool) {
	if r.cache == nil {
		return Item{}, false
	}
	payload, ok := r.cache.Get(ctx, identity)
	if !ok {
		return Item{}, false
	}
	var item Item
	if err := json.Unmarshal(payload, &item); err != nil {
		r.logger.Warn("discarding undecodable cache entry",
			logging.String("key", identity),
			logging.Error(err))
		if err := r.cache.Forget(ctx, identity); err != nil {
			r.logger.Warn("cache forget failed", logging.Error(err))
		}
		return Item{}, false
	}
	item.Stub = stub
	item.FromCache = true
	return item, true
}

// storeOutcome caches a finished outcome under the stub identity. Failed
// outcomes are cached too, with the short TTL, so a flapping collaborator
// is not hammered. Cache write failures are logged and ignored.
func (r *Reconciler) storeOutcome(ctx context.Context, identity string, item Item) {
	if r.cache == nil || item.Status == StatusSkipped {
		return
	}
	payload, err := json.Marshal(item)
	if err != nil {
		r.logger.Warn("outcome not cacheable", logging.Error(err))
		return
	}
	if err := r.cache.Put(ctx, identity, payload, r.policy.OutcomeTTL(item.Status)); err != nil {
		r.logger.Warn("cache write failed",
			logging.String("key", identity),
			logging.Error(err))
	}
}
