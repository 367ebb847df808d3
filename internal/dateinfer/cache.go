package dateinfer

import (
	"fmt"
	"time"
)

// Parser turns one raw date string into a date.
type Parser interface {
	Parse(s string) (time.Time, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(s string) (time.Time, error)

// Parse implements Parser.
func (f ParserFunc) Parse(s string) (time.Time, error) { return f(s) }

// CacheStats counts the work done by one ConvertUnique call.
type CacheStats struct {
	Rows     int // cells remapped
	Nulls    int // null input cells
	Distinct int // distinct normalized strings parsed
	Failed   int // distinct normalized strings that did not parse
}

// ConvertUnique parses every distinct string of values exactly once with p
// and remaps all cells through the resulting lookup. Strings are keyed and
// parsed in their Normalize form, so space and full-width variants share one
// parse.
//
// The output has the same length and order as values. Null cells stay null,
// native time.Time cells are kept as they are, and a string that fails to
// parse becomes null at every row where it occurs. values is not modified.
func ConvertUnique(values []any, p Parser) ([]any, CacheStats) {
	stats := CacheStats{Rows: len(values)}
	lookup := make(map[string]any)
	out := make([]any, len(values))

	for i, v := range values {
		switch t := v.(type) {
		case nil:
			stats.Nulls++
			continue
		case time.Time:
			out[i] = t
			continue
		}

		key := Normalize(rawString(v))
		parsed, ok := lookup[key]
		if !ok {
			stats.Distinct++
			if d, err := p.Parse(key); err == nil {
				parsed = d
			} else {
				stats.Failed++
				parsed = nil
			}
			lookup[key] = parsed
		}
		out[i] = parsed
	}
	return out, stats
}

// uniqueStrings returns the distinct raw strings of values in first-seen
// order, normalized for inference. Nulls and native dates are skipped.
func uniqueStrings(values []any) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 16)
	for _, v := range values {
		switch v.(type) {
		case nil, time.Time:
			continue
		}
		s := Normalize(rawString(v))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func rawString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
