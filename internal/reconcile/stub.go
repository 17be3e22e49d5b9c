package reconcile

import (
	"recmatch/internal/lookup"
	"recmatch/internal/similarity"
)

// Stub is a loosely specified recommendation awaiting reconciliation.
// Only Title is required; everything else is advisory. Stubs are immutable
// inputs produced by an upstream suggestion or search collaborator.
type Stub struct {
	Title         string `json:"title"`
	Year          string `json:"year,omitempty"`
	ExternalID    string `json:"external_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Synopsis      string `json:"synopsis,omitempty"`
	MediaTypeHint string `json:"media_type_hint,omitempty"`
}

// Identity returns the normalized (title, year) key used for caching and
// in-flight deduplication. Stubs with equal identities are treated as the
// same reconciliation unit.
func (s Stub) Identity() string {
	title := similarity.Normalize(s.Title)
	year := lookup.YearStart(s.Year)
	if year == "" {
		return title
	}
	return title + "|" + year
}

// Malformed reports whether the stub lacks the title required to attempt
// reconciliation.
func (s Stub) Malformed() bool {
	return similarity.Normalize(s.Title) == ""
}
