package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// suspiciousLength marks titles long enough to suggest a field holding
	// more than one title.
	suspiciousLength = 50
)

// foldDiacritics decomposes runes and drops combining marks so accented
// characters compare equal to their ASCII forms.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a title for comparison: diacritics folded,
// lowercased, punctuation stripped, whitespace collapsed and trimmed.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && b.Len() > 0 {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// IsSuspicious reports whether a title field looks like it accidentally
// holds several titles: unusually long, or containing list separators.
func IsSuspicious(s string) bool {
	if len(s) > suspiciousLength {
		return true
	}
	return strings.ContainsAny(s, ",;|")
}
