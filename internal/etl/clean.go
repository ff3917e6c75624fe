package etl

import (
	"strings"
	"unicode"
)

// CleanText normalizes a raw field value: trims surrounding whitespace, drops
// non-printable runes (whitespace survives), collapses internal whitespace
// runs to single spaces and truncates to maxLen when maxLen > 0. It never
// fails; anything unusable comes back as "".
func CleanText(raw string, maxLen int) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	s = strings.Join(strings.Fields(b.String()), " ")
	if maxLen > 0 {
		if runes := []rune(s); len(runes) > maxLen {
			s = string(runes[:maxLen])
		}
	}
	return s
}
