package lookup

import (
	"context"
	"strings"
)

// Record is the canonical candidate shape produced by a metadata lookup
// adapter. Fields the provider cannot supply stay zero-valued; the engine
// treats records as read-only.
type Record struct {
	ExternalID string   `json:"external_id"`
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	MediaType  string   `json:"media_type"`
	Plot       string   `json:"plot"`
	Genres     []string `json:"genres,omitempty"`
	Actors     string   `json:"actors,omitempty"`
	Director   string   `json:"director,omitempty"`
}

// Service is the narrow lookup interface the engine consumes.
//
// GetByID returns (nil, nil) when the identifier resolves to nothing.
// SearchByTitle returns an empty slice when nothing matches; yearHint is
// advisory and may be empty.
type Service interface {
	GetByID(ctx context.Context, id string) (*Record, error)
	SearchByTitle(ctx context.Context, title, yearHint string) ([]Record, error)
}

// YearStart extracts the leading year from a year value that may be a range
// such as "2019-2022" or "2019-". Returns "" when no four-digit prefix is
// present.
func YearStart(year string) string {
	year = strings.TrimSpace(year)
	if len(year) < 4 {
		return ""
	}
	prefix := year[:4]
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return prefix
}

// YearMatches reports whether a record year (possibly a range) starts with
// the same year as the hint. An empty hint matches everything; an empty or
// unparseable record year matches nothing.
func YearMatches(recordYear, hint string) bool {
	want := YearStart(hint)
	if want == "" {
		return true
	}
	return YearStart(recordYear) == want
}
