package reconcile

import (
	"recmatch/internal/lookup"
	"recmatch/internal/similarity"
)

// classify converts a resolution into a final outcome. Identifier hits are
// trusted regardless of how badly the titles disagree; search hits must
// earn verification through their score.
func (r *Reconciler) classify(stub Stub, res resolution) Item {
	item := Item{Stub: stub}

	if res.Tier == tierID && len(res.Candidates) == 1 {
		best := res.Candidates[0]
		item.Status = StatusVerified
		item.Matched = recordPtr(best.Record)
		item.Confidence = best.Score
		item.LowConfidenceMatch = best.Score < r.policy.IDConfidenceFloor
		return item
	}

	switch len(res.Candidates) {
	case 0:
		item.Status = StatusUnverified
		return item

	case 1:
		best := res.Candidates[0]
		if similarity.IsSuspicious(stub.Title) {
			item.Status = StatusNeedsUserSelection
			item.PotentialMatches = res.Candidates
			item.Confidence = best.Score
			return item
		}
		item.Status = StatusVerified
		item.Matched = recordPtr(best.Record)
		item.Confidence = best.Score
		return item

	default:
		best := res.Candidates[0]
		// Auto-verification among several candidates needs plot evidence on
		// both sides; a title score alone cannot separate near-duplicates
		// like a film and its remake.
		plotEvidence := stub.Synopsis != "" && best.Record.Plot != ""
		if plotEvidence && best.Score > r.policy.VerifyThreshold && !similarity.IsSuspicious(stub.Title) {
			item.Status = StatusVerified
			item.Matched = recordPtr(best.Record)
			item.Confidence = best.Score
			return item
		}
		item.Status = StatusNeedsUserSelection
		item.Confidence = best.Score
		limit := r.policy.MaxPotentialMatches
		if limit > len(res.Candidates) {
			limit = len(res.Candidates)
		}
		item.PotentialMatches = res.Candidates[:limit]
		return item
	}
}

func recordPtr(rec lookup.Record) *lookup.Record {
	copied := rec
	return &copied
}
