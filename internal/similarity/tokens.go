package similarity

import (
	"regexp"
	"sort"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// keywordLimit bounds how many frequency-ranked terms a keyword set keeps.
const keywordLimit = 20

// stopWords filters common English terms out of keyword extraction.
var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "against": {}, "because": {},
	"been": {}, "before": {}, "being": {}, "between": {}, "both": {},
	"could": {}, "down": {}, "during": {}, "each": {}, "from": {},
	"further": {}, "have": {}, "having": {}, "here": {}, "himself": {},
	"herself": {}, "into": {}, "itself": {}, "just": {}, "more": {},
	"most": {}, "once": {}, "only": {}, "other": {}, "over": {},
	"same": {}, "should": {}, "some": {}, "such": {}, "than": {},
	"that": {}, "their": {}, "them": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "this": {}, "those": {}, "through": {},
	"under": {}, "until": {}, "very": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "with": {}, "would": {},
	"your": {},
}

// Tokenize splits text into lowercase tokens, dropping tokens shorter than
// three characters.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if len(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Keywords extracts the top frequency-ranked tokens from text after
// filtering stop words and tokens of three characters or fewer. Ties break
// alphabetically so the result is deterministic.
func Keywords(text string) []string {
	counts := make(map[string]int)
	for _, token := range Tokenize(text) {
		if len(token) <= 3 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		counts[token]++
	}
	if len(counts) == 0 {
		return nil
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > keywordLimit {
		terms = terms[:keywordLimit]
	}
	return terms
}

// jaccard computes |intersection| / |union| over two token slices treated
// as sets. Returns 0 when the union is empty.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
