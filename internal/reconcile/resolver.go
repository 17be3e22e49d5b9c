package reconcile

import (
	"context"
	"errors"
	"sort"
	"strings"

	"recmatch/internal/logging"
	"recmatch/internal/lookup"
	"recmatch/internal/services"
	"recmatch/internal/similarity"
)

// tier identifies which search strategy produced a candidate set.
type tier int

const (
	tierNone tier = iota
	tierID
	tierTitleYear
	tierTitleOnly
	tierSimplified
)

func (t tier) String() string {
	switch t {
	case tierID:
		return "id"
	case tierTitleYear:
		return "title_year"
	case tierTitleOnly:
		return "title_only"
	case tierSimplified:
		return "simplified"
	default:
		return "none"
	}
}

// resolution is a ranked candidate list together with the tier that
// produced it.
type resolution struct {
	Tier       tier
	Candidates []ScoredCandidate
}

// resolve runs the tiered candidate search, stopping at the first tier
// that yields at least one candidate. Transient lookup failures propagate
// so the retry wrapper can re-run the whole resolution.
func (r *Reconciler) resolve(ctx context.Context, stub Stub) (resolution, error) {
	if stub.ExternalID != "" {
		record, err := r.lookup.GetByID(ctx, stub.ExternalID)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			return resolution{}, err
		}
		if record != nil {
			return resolution{
				Tier: tierID,
				Candidates: []ScoredCandidate{{
					Record: *record,
					Score:  similarity.TitleSimilarity(stub.Title, record.Title),
				}},
			}, nil
		}
		r.logger.Debug("id lookup found nothing, falling back to search",
			logging.String("external_id", stub.ExternalID))
	}

	type searchTier struct {
		tier     tier
		query    string
		yearHint string
	}
	tiers := make([]searchTier, 0, 3)
	if lookup.YearStart(stub.Year) != "" {
		tiers = append(tiers, searchTier{tierTitleYear, stub.Title, stub.Year})
	}
	tiers = append(tiers, searchTier{tierTitleOnly, stub.Title, ""})
	if simplified := simplifyTitle(stub.Title); simplified != "" && simplified != similarity.Normalize(stub.Title) {
		tiers = append(tiers, searchTier{tierSimplified, simplified, ""})
	}

	for _, st := range tiers {
		records, err := r.lookup.SearchByTitle(ctx, st.query, st.yearHint)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				continue
			}
			return resolution{}, err
		}
		if len(records) == 0 {
			continue
		}

		records = filterByYear(records, stub.Year)
		candidates := r.rankCandidates(ctx, stub, records)
		r.logger.Debug("search tier resolved candidates",
			logging.String("tier", st.tier.String()),
			logging.String("query", st.query),
			logging.Int("candidates", len(candidates)))
		return resolution{Tier: st.tier, Candidates: candidates}, nil
	}

	return resolution{Tier: tierNone}, nil
}

// filterByYear keeps records whose year (or range start) matches the
// stub's year. When the filter would empty the set, the unfiltered records
// are kept: a wrong year hint should narrow results, never erase them.
func filterByYear(records []lookup.Record, year string) []lookup.Record {
	if lookup.YearStart(year) == "" {
		return records
	}
	filtered := make([]lookup.Record, 0, len(records))
	for _, rec := range records {
		if lookup.YearMatches(rec.Year, year) {
			filtered = append(filtered, rec)
		}
	}
	if len(filtered) == 0 {
		return records
	}
	return filtered
}

// rankCandidates scores search results against the stub and orders them
// best first. Multi-candidate sets get detail lookups for their top entries
// so plot comparison has something to work with.
func (r *Reconciler) rankCandidates(ctx context.Context, stub Stub, records []lookup.Record) []ScoredCandidate {
	candidates := make([]ScoredCandidate, 0, len(records))
	for _, rec := range records {
		candidates = append(candidates, ScoredCandidate{
			Record: rec,
			Score:  similarity.TitleSimilarity(stub.Title, rec.Title),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > 1 {
		limit := r.policy.DetailFetchLimit
		if limit > len(candidates) {
			limit = len(candidates)
		}
		for i := 0; i < limit; i++ {
			candidates[i].Record = r.fetchDetail(ctx, candidates[i].Record)
		}
		for i := range candidates {
			candidates[i].Score = scoreCandidate(stub, candidates[i].Record)
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})
	}
	return candidates
}

// fetchDetail upgrades a thin search result to its full record when a plot
// is missing. Detail failures are tolerated; the thin record still ranks
// on title similarity alone.
func (r *Reconciler) fetchDetail(ctx context.Context, rec lookup.Record) lookup.Record {
	if rec.Plot != "" || rec.ExternalID == "" {
		return rec
	}
	detail, err := r.lookup.GetByID(ctx, rec.ExternalID)
	if err != nil || detail == nil {
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			r.logger.Debug("detail fetch failed",
				logging.String("external_id", rec.ExternalID),
				logging.Error(err))
		}
		return rec
	}
	return *detail
}

// scoreCandidate blends plot evidence into the score when both sides have
// it; otherwise title similarity stands alone.
func scoreCandidate(stub Stub, rec lookup.Record) float64 {
	if stub.Synopsis != "" && rec.Plot != "" {
		return similarity.Combined(stub.Title, rec.Title, stub.Synopsis, rec.Plot)
	}
	return similarity.TitleSimilarity(stub.Title, rec.Title)
}

// simplifyTitle reduces a title to its first meaningful word for the last
// search tier. Returns "" when no word is longer than two characters.
func simplifyTitle(title string) string {
	for _, word := range strings.Fields(similarity.Normalize(title)) {
		if len(word) > 2 {
			return word
		}
	}
	return ""
}
