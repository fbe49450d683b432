package letterboxd

import (
	"regexp"
	"strings"
)

var parenthesized = regexp.MustCompile(`\(.*?\)`)

// NormalizeTitle reduces a title to a comparison key: lower-cased, without
// parenthesized parts, with anything but ASCII letters, digits and the
// Scandinavian letters å, ø and æ turned into spaces, and with whitespace
// collapsed. The key is never shown to users.
func NormalizeTitle(title string) string {
	lowered := parenthesized.ReplaceAllString(strings.ToLower(title), "")
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if keepRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func keepRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == 'å', r == 'ø', r == 'æ':
		return true
	}
	return false
}

// SameTitle reports whether two titles normalize to the same key.
func SameTitle(a, b string) bool {
	return NormalizeTitle(a) == NormalizeTitle(b)
}
