package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SanitizeToken turns a voice name into the clip filename prefix: accents are
// folded to their base letter, ASCII letters lowercased, digits, '-' and '_'
// kept, and every other run of characters collapsed to a single '_'.
// Empty results become "unknown".
func SanitizeToken(value string) string {
	folded, _, err := transform.String(accentFolder(), strings.TrimSpace(value))
	if err != nil {
		folded = value
	}
	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
		default:
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// CollapseSpaces replaces every run of whitespace with a single space and
// trims the result.
func CollapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
