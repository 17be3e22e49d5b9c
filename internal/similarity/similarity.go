package similarity

import "strings"

const (
	// suspiciousCap is the highest score a suspicious title can earn.
	suspiciousCap = 0.5
	// containmentScore is awarded when one normalized title contains the
	// other under the length-ratio guard.
	containmentScore = 0.7
	// containmentMaxRatio guards the containment rule: it only applies when
	// the shorter title is meaningfully shorter, preventing near-equal-length
	// titles from short-circuiting the edit-distance comparison.
	containmentMaxRatio = 0.7
	// containmentMinLength keeps very short titles out of the containment
	// rule entirely.
	containmentMinLength = 3
)

// TitleSimilarity scores how closely two titles match, in [0, 1].
//
// Exact matches after normalization score 1.0. If either title looks
// suspicious (see IsSuspicious) the score is capped at 0.5 and the
// containment and edit-distance heuristics are skipped, since a field
// holding multiple titles produces misleading distances. Containment of one
// title in the other scores 0.7 when the length ratio permits. Otherwise
// the score is 1 minus the length-normalized Levenshtein distance.
func TitleSimilarity(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0
	}

	if IsSuspicious(a) || IsSuspicious(b) {
		return suspiciousCap
	}

	lenA := len([]rune(na))
	lenB := len([]rune(nb))
	shorter, longer := lenA, lenB
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if shorter > containmentMinLength && float64(shorter)/float64(longer) < containmentMaxRatio {
		if strings.Contains(na, nb) || strings.Contains(nb, na) {
			return containmentScore
		}
	}

	dist := Levenshtein(na, nb)
	maxLen := longer
	if maxLen == 0 {
		return 0
	}
	score := 1.0 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

// PlotSimilarity computes Jaccard overlap between the token sets of two
// plot descriptions.
func PlotSimilarity(a, b string) float64 {
	return jaccard(Tokenize(a), Tokenize(b))
}

// KeywordSimilarity computes Jaccard overlap between the keyword sets of
// two texts.
func KeywordSimilarity(a, b string) float64 {
	return jaccard(Keywords(a), Keywords(b))
}

// Combined blends plot, keyword, and title similarity for the plot-assisted
// ranking path. Weights favor keyword overlap, which is less sensitive to
// phrasing differences than raw token overlap.
func Combined(titleA, titleB, plotA, plotB string) float64 {
	text := PlotSimilarity(plotA, plotB)
	keywords := KeywordSimilarity(plotA, plotB)
	title := TitleSimilarity(titleA, titleB)
	return 0.3*text + 0.4*keywords + 0.3*title
}
