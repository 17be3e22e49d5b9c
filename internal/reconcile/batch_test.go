package reconcile_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"recmatch/internal/lookup"
	"recmatch/internal/reconcile"
	"recmatch/internal/services"
	"recmatch/internal/testsupport"
	"recmatch/internal/verifycache"
)

func TestReconcileBatchReturnsOneOutcomePerStub(t *testing.T) {
	svc := testsupport.NewFakeLookup(
		lookup.Record{ExternalID: "d1", Title: "Dark Waters", Year: "2019"},
		lookup.Record{ExternalID: "s1", Title: "Solaris", Year: "1972"},
	)
	svc.SearchHook = func(title, _ string) ([]lookup.Record, error) {
		if title == "Broken" {
			panic("resolver blew up")
		}
		var matches []lookup.Record
		for _, rec := range []lookup.Record{
			{ExternalID: "d1", Title: "Dark Waters", Year: "2019"},
			{ExternalID: "s1", Title: "Solaris", Year: "1972"},
		} {
			if strings.Contains(strings.ToLower(rec.Title), strings.ToLower(title)) {
				matches = append(matches, rec)
			}
		}
		return matches, nil
	}
	r := newReconciler(t, svc)

	stubs := []reconcile.Stub{
		{Title: "Dark Waters"},
		{Title: ""},
		{Title: "Broken"},
		{Title: "Solaris"},
		{Title: "Dark Waters"},
	}
	result := r.ReconcileBatch(context.Background(), stubs)

	if result.Total != len(stubs) || len(result.Items) != len(stubs) {
		t.Fatalf("total = %d items = %d, want %d", result.Total, len(result.Items), len(stubs))
	}
	if result.BatchID == "" {
		t.Fatal("batch id missing")
	}
	if result.Items[0].Status != reconcile.StatusVerified {
		t.Fatalf("item 0 status = %s, want %s", result.Items[0].Status, reconcile.StatusVerified)
	}
	if result.Items[1].SkipReason == "" {
		t.Fatal("malformed stub not skipped")
	}
	if result.Items[2].Status != reconcile.StatusFailed {
		t.Fatalf("item 2 status = %s, want %s", result.Items[2].Status, reconcile.StatusFailed)
	}
	if result.Items[4].SkipReason == "" {
		t.Fatal("duplicate stub not skipped")
	}
	if result.Items[4].Status != result.Items[0].Status {
		t.Fatalf("duplicate carries status %s, want the first occurrence's %s",
			result.Items[4].Status, result.Items[0].Status)
	}
	if result.Verified != 2 || result.Failed != 1 || result.Skipped != 2 {
		t.Fatalf("counts = verified %d failed %d skipped %d, want 2/1/2",
			result.Verified, result.Failed, result.Skipped)
	}
}

func TestReconcileBatchPacesBetweenChunks(t *testing.T) {
	svc := testsupport.NewFakeLookup(
		lookup.Record{ExternalID: "a", Title: "Alpha"},
		lookup.Record{ExternalID: "b", Title: "Beta"},
		lookup.Record{ExternalID: "c", Title: "Gamma"},
	)

	var mu sync.Mutex
	var delays []time.Duration
	sleeper := func(_ context.Context, d time.Duration) error {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		return nil
	}

	policy := reconcile.DefaultPolicy()
	policy.BatchSize = 1
	policy.BatchDelay = 250 * time.Millisecond
	r := reconcile.New(svc,
		reconcile.WithPolicy(policy),
		reconcile.WithRetryConfig(services.RetryConfig{Sleep: noSleep}),
		reconcile.WithSleep(sleeper),
	)

	result := r.ReconcileBatch(context.Background(), []reconcile.Stub{
		{Title: "Alpha"}, {Title: "Beta"}, {Title: "Gamma"},
	})

	if result.Verified != 3 {
		t.Fatalf("verified = %d, want 3", result.Verified)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(delays) != 2 {
		t.Fatalf("pacing sleeps = %d, want 2 (between three single-stub chunks)", len(delays))
	}
	for _, d := range delays {
		if d != 250*time.Millisecond {
			t.Fatalf("pacing delay = %v, want 250ms", d)
		}
	}
}

func TestReconcileBatchSkipsFreshCacheEntries(t *testing.T) {
	svc := testsupport.NewFakeLookup(
		lookup.Record{ExternalID: "d1", Title: "Dark Waters", Year: "2019"},
	)
	r := newReconciler(t, svc, reconcile.WithCache(verifycache.New(nil)))

	stub := reconcile.Stub{Title: "Dark Waters"}
	if item := r.Reconcile(context.Background(), stub); item.Status != reconcile.StatusVerified {
		t.Fatalf("priming status = %s, want %s", item.Status, reconcile.StatusVerified)
	}
	callsAfterPrime := svc.Calls()

	result := r.ReconcileBatch(context.Background(), []reconcile.Stub{stub})

	if result.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", result.Skipped)
	}
	if !result.Items[0].FromCache {
		t.Fatal("cached batch item not marked FromCache")
	}
	if result.Items[0].Status != reconcile.StatusVerified {
		t.Fatalf("cached item status = %s, want %s", result.Items[0].Status, reconcile.StatusVerified)
	}
	if svc.Calls() != callsAfterPrime {
		t.Fatalf("lookup calls = %d, want %d", svc.Calls(), callsAfterPrime)
	}
}
