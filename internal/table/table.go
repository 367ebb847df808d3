// Package table provides the in-memory columnar table passed between sources,
// the date converter, and sinks.
//
// A cell is one of:
//   - nil       (null / missing)
//   - string
//   - int64
//   - float64
//   - bool
//   - time.Time
//
// Sources must normalize driver-specific types (int32, []byte, json.Number,
// pgtype values, ...) into this set before building a Table.
package table

import (
	"fmt"
	"strings"
	"time"
)

// Column is one named, ordered sequence of cells.
type Column struct {
	Name   string
	Values []any
}

// Table is an ordered set of equal-length columns.
//
// Tables are treated as values: operations that change a column return a new
// Table and leave the receiver untouched. Column value slices are shared
// between a Table and the Tables derived from it unless Clone is used, so
// callers must never write into Values of a Table they did not build.
type Table struct {
	Columns []Column
}

// New builds a Table from columns, validating that all columns have the same
// length and that names are unique.
func New(cols ...Column) (*Table, error) {
	seen := make(map[string]struct{}, len(cols))
	n := -1
	for _, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if n >= 0 && len(c.Values) != n {
			return nil, fmt.Errorf("table: column %q has %d rows, want %d", c.Name, len(c.Values), n)
		}
		n = len(c.Values)
	}
	return &Table{Columns: cols}, nil
}

// FromRecords builds a Table from a header and row-major records.
// Short records are padded with nulls; extra fields are dropped.
func FromRecords(header []string, rows [][]any) (*Table, error) {
	cols := make([]Column, len(header))
	for i, h := range header {
		cols[i] = Column{Name: h, Values: make([]any, len(rows))}
	}
	for r, rec := range rows {
		for i := range cols {
			if i < len(rec) {
				cols[i].Values[r] = rec[i]
			}
		}
	}
	return New(cols...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// WithColumn returns a copy of t with the column at index i replaced by values.
// The receiver is not modified.
func (t *Table) WithColumn(i int, values []any) *Table {
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	cols[i] = Column{Name: cols[i].Name, Values: values}
	return &Table{Columns: cols}
}

// Clone returns a deep copy of t's column slices.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		vals := make([]any, len(c.Values))
		copy(vals, c.Values)
		cols[i] = Column{Name: c.Name, Values: vals}
	}
	return &Table{Columns: cols}
}

// Records returns a row-major view of t. The returned rows are freshly
// allocated; cells are shared.
func (t *Table) Records() [][]any {
	n := t.Len()
	out := make([][]any, n)
	for r := 0; r < n; r++ {
		row := make([]any, len(t.Columns))
		for c := range t.Columns {
			row[c] = t.Columns[c].Values[r]
		}
		out[r] = row
	}
	return out
}

// Kind is the coarse type of a column as seen by sinks.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindInteger
	KindFloat
	KindBool
	KindDate
	KindTimestamp
	KindMixed
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	default:
		return "mixed"
	}
}

// KindOfValue classifies a single cell.
func KindOfValue(v any) Kind {
	switch t := v.(type) {
	case nil:
		return KindNull
	case string:
		return KindText
	case int64, int, int32:
		return KindInteger
	case float64, float32:
		return KindFloat
	case bool:
		return KindBool
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return KindDate
		}
		return KindTimestamp
	default:
		return KindMixed
	}
}

// ColumnKind returns the single kind shared by all non-null cells of values.
//
// Dates and timestamps mixed in one column yield KindTimestamp; integers and
// floats yield KindFloat. Any other combination is KindMixed. An all-null
// column is KindNull.
func ColumnKind(values []any) Kind {
	kind := KindNull
	for _, v := range values {
		k := KindOfValue(v)
		if k == KindNull || k == kind {
			continue
		}
		switch {
		case kind == KindNull:
			kind = k
		case (kind == KindDate && k == KindTimestamp) || (kind == KindTimestamp && k == KindDate):
			kind = KindTimestamp
		case (kind == KindInteger && k == KindFloat) || (kind == KindFloat && k == KindInteger):
			kind = KindFloat
		default:
			return KindMixed
		}
	}
	return kind
}

// IsNativeDate reports whether every non-null value is a time.Time and at
// least one value is non-null.
func IsNativeDate(values []any) bool {
	seen := false
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := v.(time.Time); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// AllNull reports whether every value is nil. An empty slice is all null.
func AllNull(values []any) bool {
	for _, v := range values {
		if v != nil {
			return false
		}
	}
	return true
}

// Summary describes the shape of a Table.
type Summary struct {
	Rows    int
	Columns int
	Names   []string
	Nulls   int
	Kinds   []Kind
}

// Summary computes rows, column names, total null cells, and the distinct
// column kinds in first-seen order.
func (t *Table) Summary() Summary {
	s := Summary{Rows: t.Len(), Columns: len(t.Columns), Names: t.Names()}
	seen := map[Kind]bool{}
	for _, c := range t.Columns {
		for _, v := range c.Values {
			if v == nil {
				s.Nulls++
			}
		}
		k := ColumnKind(c.Values)
		if !seen[k] {
			seen[k] = true
			s.Kinds = append(s.Kinds, k)
		}
	}
	return s
}

// String renders the summary in the block format printed by the CLI.
func (s Summary) String() string {
	kinds := make([]string, len(s.Kinds))
	for i, k := range s.Kinds {
		kinds[i] = k.String()
	}
	var b strings.Builder
	rule := strings.Repeat("-", 18)
	fmt.Fprintf(&b, "%s\nTable Summary\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Number of rows: %d\n", s.Rows)
	fmt.Fprintf(&b, "Number of columns: %d\n", s.Columns)
	fmt.Fprintf(&b, "Column names: [%s]\n", strings.Join(s.Names, ", "))
	fmt.Fprintf(&b, "Number of nulls: %d\n", s.Nulls)
	fmt.Fprintf(&b, "Unique kinds: [%s]\n", strings.Join(kinds, ", "))
	return b.String()
}

// Stringify renders a non-null cell as text. Dates without a time component
// render as YYYY-MM-DD.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		if KindOfValue(t) == KindDate {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
