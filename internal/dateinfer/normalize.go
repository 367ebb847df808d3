package dateinfer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText maps compatibility forms (full-width digits, full-width solidus,
// non-breaking spaces) to their ASCII equivalents and drops control
// characters such as a stray BOM.
var foldText = transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Cc)), runes.Remove(runes.Predicate(isFormatRune)))

func isFormatRune(r rune) bool { return unicode.Is(unicode.Cf, r) }

// Normalize prepares a raw date string for inference and parsing.
func Normalize(s string) string {
	if isPlainASCII(s) {
		return strings.TrimSpace(s)
	}
	out, _, err := transform.String(foldText, s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(out)
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 0x80 || c < 0x20 {
			return false
		}
	}
	return true
}
