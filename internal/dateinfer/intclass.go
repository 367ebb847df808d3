package dateinfer

import (
	"math"
	"strconv"
	"strings"
)

// IntClass tags the result of an integer cast attempt.
type IntClass int

const (
	NonInteger IntClass = iota
	Integer
)

// ClassifyInt reports whether v is cleanly castable to an integer and returns
// the cast value when it is.
//
// Accepted: native integer types, floats with no fractional part inside the
// int64 range, and strings
// holding a base-10 integer (surrounding space allowed).
func ClassifyInt(v any) (int64, IntClass) {
	switch t := v.(type) {
	case int64:
		return t, Integer
	case int:
		return int64(t), Integer
	case int32:
		return int64(t), Integer
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) || t != math.Trunc(t) {
			return 0, NonInteger
		}
		if t < -9223372036854775808.0 || t >= 9223372036854775808.0 {
			return 0, NonInteger
		}
		return int64(t), Integer
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, NonInteger
		}
		return n, Integer
	default:
		return 0, NonInteger
	}
}

// castIntegers returns the integer cast of values when every non-null value
// classifies as Integer. The second result is false otherwise, and also for
// an all-null input.
func castIntegers(values []any) ([]any, bool) {
	out := make([]any, len(values))
	seen := false
	for i, v := range values {
		if v == nil {
			continue
		}
		n, class := ClassifyInt(v)
		if class != Integer {
			return nil, false
		}
		out[i] = n
		seen = true
	}
	return out, seen
}
