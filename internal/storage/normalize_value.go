package storage

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// NormalizeValue converts a driver value to a table cell: nil, string, int64,
// float64, bool or time.Time.
//
// Backends must not assume a particular driver type for a column; this helper
// keeps cells consistent across backends.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return t
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case float64:
		return t
	case float32:
		return float64(t)
	case bool:
		return t
	case time.Time:
		return t
	case *big.Int:
		if t.IsInt64() {
			return t.Int64()
		}
		return t.String()
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
