package reconcile

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"recmatch/internal/logging"
	"recmatch/internal/services"
)

const (
	skipMissingTitle = "missing title"
	skipCached       = "cached"
	skipInFlight     = "already in flight"
	skipDuplicate    = "duplicate identity in batch"
)

// ReconcileBatch resolves many stubs with dedup and pacing. Stubs within a
// chunk run concurrently; successive chunks are separated by the policy's
// batch delay. Every submitted stub yields exactly one entry in the
// result, in input order, and no single failure aborts the batch.
func (r *Reconciler) ReconcileBatch(ctx context.Context, stubs []Stub) BatchResult {
	batchID := uuid.NewString()
	ctx = services.WithBatchID(ctx, batchID)
	logger := r.logger.With(logging.String("batch_id", batchID))

	items := make([]Item, len(stubs))

	type job struct {
		index int
		stub  Stub
	}
	var jobs []job
	firstIndex := make(map[string]int)
	duplicateOf := make(map[int]int)

	for i, stub := range stubs {
		if stub.Malformed() {
			items[i] = Item{Stub: stub, Status: StatusSkipped, SkipReason: skipMissingTitle}
			continue
		}
		identity := stub.Identity()
		if first, ok := firstIndex[identity]; ok {
			duplicateOf[i] = first
			continue
		}
		if item, ok := r.cachedItem(ctx, identity, stub); ok {
			item.SkipReason = skipCached
			items[i] = item
			continue
		}
		if r.Flying(identity) {
			items[i] = Item{Stub: stub, Status: StatusSkipped, SkipReason: skipInFlight}
			continue
		}
		firstIndex[identity] = i
		jobs = append(jobs, job{index: i, stub: stub})
	}

	size := r.policy.BatchSize
	for start := 0; start < len(jobs); start += size {
		end := start + size
		if end > len(jobs) {
			end = len(jobs)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for _, jb := range jobs[start:end] {
			jb := jb
			group.Go(func() error {
				items[jb.index] = r.Reconcile(groupCtx, jb.stub)
				return nil
			})
		}
		// Workers never return errors; outcomes carry their own failures.
		_ = group.Wait()

		if end < len(jobs) && r.policy.BatchDelay > 0 {
			if err := r.sleep(ctx, r.policy.BatchDelay); err != nil {
				logger.Warn("batch pacing interrupted", logging.Error(err))
				for _, jb := range jobs[end:] {
					items[jb.index] = Item{Stub: jb.stub, Status: StatusFailed, Error: err.Error()}
				}
				break
			}
		}
	}

	for i, first := range duplicateOf {
		item := items[first]
		item.Stub = stubs[i]
		item.SkipReason = skipDuplicate
		items[i] = item
	}

	result := BatchResult{BatchID: batchID, Total: len(items), Items: items}
	for _, item := range items {
		switch {
		case item.SkipReason != "":
			result.Skipped++
		case item.Status == StatusVerified:
			result.Verified++
		case item.Status == StatusFailed:
			result.Failed++
		}
	}

	logger.Info("batch finished",
		logging.Int("total", result.Total),
		logging.Int("verified", result.Verified),
		logging.Int("failed", result.Failed),
		logging.Int("skipped", result.Skipped))
	return result
}
