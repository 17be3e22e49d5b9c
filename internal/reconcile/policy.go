package reconcile

import "time"

// Policy centralizes reconciliation thresholds and batching rules. The
// same threshold set is used everywhere; historical variants of these
// constants were reconciled to one canonical set.
type Policy struct {
	// VerifyThreshold is the similarity a best candidate must exceed to be
	// auto-accepted on the title search tiers.
	VerifyThreshold float64
	// IDConfidenceFloor flags identifier-tier matches whose title
	// similarity falls below it as low confidence. The match is still
	// accepted: a supplied identifier is trusted over text evidence.
	IDConfidenceFloor float64
	// MaxPotentialMatches bounds how many candidates a deferred outcome
	// carries for user selection.
	MaxPotentialMatches int
	// DetailFetchLimit bounds how many thin search results get a full
	// detail lookup for plot comparison.
	DetailFetchLimit int
	// BatchSize is how many stubs reconcile concurrently per batch.
	BatchSize int
	// BatchDelay is the pause between batches, a backpressure measure
	// against collaborator rate limits.
	BatchDelay time.Duration
	// VerifiedTTL and UnverifiedTTL control how long outcomes stay cached.
	// Unverified and failed outcomes expire sooner so they retry naturally.
	VerifiedTTL   time.Duration
	UnverifiedTTL time.Duration
}

// DefaultPolicy returns the canonical threshold set.
func DefaultPolicy() Policy {
	return Policy{
		VerifyThreshold:     0.8,
		IDConfidenceFloor:   0.8,
		MaxPotentialMatches: 5,
		DetailFetchLimit:    5,
		BatchSize:           5,
		BatchDelay:          time.Second,
		VerifiedTTL:         48 * time.Hour,
		UnverifiedTTL:       6 * time.Hour,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.VerifyThreshold <= 0 || p.VerifyThreshold >= 1 {
		p.VerifyThreshold = d.VerifyThreshold
	}
	if p.IDConfidenceFloor <= 0 || p.IDConfidenceFloor > 1 {
		p.IDConfidenceFloor = d.IDConfidenceFloor
	}
	if p.MaxPotentialMatches <= 0 {
		p.MaxPotentialMatches = d.MaxPotentialMatches
	}
	if p.DetailFetchLimit <= 0 {
		p.DetailFetchLimit = d.DetailFetchLimit
	}
	if p.BatchSize <= 0 {
		p.BatchSize = d.BatchSize
	}
	if p.BatchDelay < 0 {
		p.BatchDelay = d.BatchDelay
	}
	if p.VerifiedTTL <= 0 {
		p.VerifiedTTL = d.VerifiedTTL
	}
	if p.UnverifiedTTL <= 0 {
		p.UnverifiedTTL = d.UnverifiedTTL
	}
	return p
}

// OutcomeTTL returns the cache lifetime for an outcome with the given
// status.
func (p Policy) OutcomeTTL(status Status) time.Duration {
	if status == StatusVerified {
		return p.VerifiedTTL
	}
	return p.UnverifiedTTL
}
