package match

import (
	"regexp"
	"strings"
	"unicode"
)

var artistSeparators = regexp.MustCompile(`(?i)\s*(?:,|/|&|feat\.|ft\.)\s*`)

// Normalize lowercases text and strips every character that is neither a
// word character nor whitespace. Whitespace is preserved as-is.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ContainsKeywordsInOrder reports whether every keyword appears in the
// normalized candidate title, in the given order. The search for each
// keyword starts strictly after the end of the previous match; gaps are
// allowed, reordering is not. Keywords are expected to be normalized already.
func ContainsKeywordsInOrder(candidateTitle string, keywords []string) bool {
	txt := Normalize(candidateTitle)
	pos := 0
	for _, kw := range keywords {
		idx := strings.Index(txt[pos:], kw)
		if idx < 0 {
			return false
		}
		pos += idx + len(kw)
	}
	return true
}

// PrimaryArtist extracts the first name from a possibly multi-artist credit
// string. Featured artists are deliberately discarded.
func PrimaryArtist(raw string) string {
	parts := artistSeparators.Split(raw, 2)
	return strings.TrimSpace(parts[0])
}

// titleKeywords returns up to the first five normalized words of a row
// title, used as the coarse relevance gate in the wide probe.
func titleKeywords(title string) []string {
	words := strings.Fields(Normalize(title))
	if len(words) > 5 {
		words = words[:5]
	}
	return words
}

// isUnknownArtist reports whether the artist dimension should be skipped
// entirely for scoring and filtering.
func isUnknownArtist(artist string) bool {
	return artist == "" || strings.EqualFold(strings.TrimSpace(artist), "unknown")
}

// signalsInstrumental reports whether a row title already asks for an
// instrumental rendition.
func signalsInstrumental(title string) bool {
	return strings.Contains(Normalize(title), "instrumental")
}
