package extractors

import (
	"strings"
	"unicode"
)

// Normalize collapses all runs of whitespace to single spaces and drops
// non-printable characters. Two byte-identical documents always normalize to
// the same string, which is what makes the content fingerprint stable.
func Normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
