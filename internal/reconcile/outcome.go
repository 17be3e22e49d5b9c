package reconcile

import "recmatch/internal/lookup"

// Status describes the terminal state of one reconciliation.
type Status string

const (
	// StatusVerified means a single candidate was accepted.
	StatusVerified Status = "verified"
	// StatusNeedsUserSelection means plausible candidates exist but none
	// dominates; the caller should present PotentialMatches for a choice.
	StatusNeedsUserSelection Status = "needs_user_selection"
	// StatusUnverified means no candidate was found at any search tier.
	StatusUnverified Status = "unverified"
	// StatusFailed means reconciliation could not complete, typically after
	// exhausting retries against an unavailable collaborator.
	StatusFailed Status = "failed"
	// StatusSkipped is used only inside batch results for stubs that were
	// never processed: malformed, duplicate identity, or already in flight.
	StatusSkipped Status = "skipped"
)

// ScoredCandidate pairs a candidate record with its similarity score.
type ScoredCandidate struct {
	Record lookup.Record `json:"record"`
	Score  float64       `json:"score"`
}

// Item is the outcome of reconciling one stub.
//
// Invariants: StatusVerified implies Matched is non-nil;
// StatusNeedsUserSelection implies at least one entry in PotentialMatches;
// Confidence is always within [0, 1].
type Item struct {
	Stub               Stub              `json:"stub"`
	Matched            *lookup.Record    `json:"matched,omitempty"`
	Status             Status            `json:"status"`
	Confidence         float64           `json:"confidence"`
	PotentialMatches   []ScoredCandidate `json:"potential_matches,omitempty"`
	LowConfidenceMatch bool              `json:"low_confidence_match,omitempty"`
	FromCache          bool              `json:"from_cache,omitempty"`
	SkipReason         string            `json:"skip_reason,omitempty"`
	Error              string            `json:"error,omitempty"`
}

// BatchResult aggregates the outcomes of one ReconcileBatch call. Total
// always equals len(Items); Verified and Failed count only items that were
// actually processed, while Skipped counts items carrying a SkipReason.
type BatchResult struct {
	BatchID  string `json:"batch_id"`
	Total    int    `json:"total"`
	Verified int    `json:"verified"`
	Failed   int    `json:"failed"`
	Skipped  int    `json:"skipped"`
	Items    []Item `json:"items"`
}
