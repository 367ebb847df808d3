package dateinfer

import "strings"

// Separator is the single character splitting the tokens of a date string.
type Separator int

const (
	Slash Separator = iota
	Dash
)

// Rune returns the separator character.
func (s Separator) Rune() rune {
	if s == Dash {
		return '-'
	}
	return '/'
}

func (s Separator) String() string { return string(s.Rune()) }

// DetectSeparator returns Dash only when every sample contains "-"; any other
// batch, including one without "/" at all, gets Slash.
//
// A batch is expected to use one separator throughout. Mixed batches are not
// checked and produce undefined per-row results.
func DetectSeparator(samples []string) Separator {
	if len(samples) == 0 {
		return Slash
	}
	for _, s := range samples {
		if !strings.Contains(s, "-") {
			return Slash
		}
	}
	return Dash
}

// splitTokens splits s on either separator character. Empty tokens are
// dropped, so "2020//01" has two tokens and fails classification with
// ErrTokenCount.
func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '-' })
}
