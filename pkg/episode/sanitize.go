package episode

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var parenMetadata = regexp.MustCompile(`\s*\(.+?\)`)

// SanitizeName reduces a series name to its canonical lookup key:
// lowercase, accents folded, parenthesized metadata such as years and
// country tags dropped, every non-alphanumeric removed. Sanitizing an
// already-sanitized name is a no-op.
func SanitizeName(name string) string {
	s := strings.ToLower(name)
	s = parenMetadata.ReplaceAllString(s, "")
	s = removeAccents(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}
