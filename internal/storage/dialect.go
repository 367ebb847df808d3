package storage

import (
	"fmt"
	"strings"

	"datenorm/internal/table"
)

// Dialect captures the SQL differences between backends: identifier quoting,
// bind parameters, column types and the create-if-missing form.
type Dialect struct {
	Name string

	// Quote quotes one identifier.
	Quote func(string) string

	// Placeholder returns the n-th (1-based) bind parameter.
	Placeholder func(n int) string

	// Types maps a column kind to a SQL type. Kinds without an entry use the
	// KindText type.
	Types map[table.Kind]string

	// CreateIfMissing wraps a table name and column definitions into DDL.
	// When nil, CREATE TABLE IF NOT EXISTS is used.
	CreateIfMissing func(qualified, defs string) string

	// MaxParams caps the bind parameters of one INSERT statement.
	MaxParams int
}

// QuoteTable quotes a possibly schema-qualified name.
//
// Example:
//
//	"dbo.imports" -> [dbo].[imports]
func (d Dialect) QuoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = d.Quote(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}

// SQLType returns the column type used for kind.
func (d Dialect) SQLType(kind table.Kind) string {
	if s, ok := d.Types[kind]; ok {
		return s
	}
	return d.Types[table.KindText]
}

// CreateTableSQL builds DDL that creates name with one column per table
// column, typed from the column's values. All columns are nullable.
func (d Dialect) CreateTableSQL(name string, t *table.Table) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("table name is empty")
	}
	if t == nil || len(t.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", name)
	}

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = d.Quote(c.Name) + " " + d.SQLType(table.ColumnKind(c.Values))
	}
	joined := strings.Join(defs, ", ")

	if d.CreateIfMissing != nil {
		return d.CreateIfMissing(d.QuoteTable(name), joined), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.QuoteTable(name), joined), nil
}

// InsertSQL builds a single multi-row INSERT statement and its args.
//
// Constraints:
//   - every row must have len(columns) cells.
//   - columns must be non-empty.
func (d Dialect) InsertSQL(name string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteTable(name))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Quote(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(p))
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	return b.String(), args
}

// BatchRows returns how many rows of ncols cells fit in one INSERT.
func (d Dialect) BatchRows(ncols int) int {
	if ncols <= 0 {
		return 0
	}
	maxParams := d.MaxParams
	if maxParams <= 0 {
		maxParams = 999
	}
	n := maxParams / ncols
	if n < 1 {
		n = 1
	}
	return n
}

// DoubleQuote quotes an identifier ANSI style, escaping '"' as '""'.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuestionMark is the "?" placeholder style.
func QuestionMark(int) string { return "?" }
