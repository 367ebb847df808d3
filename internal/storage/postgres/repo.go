// Package postgres registers the "postgres" storage backend on a pgx
// connection pool. Writes use the COPY protocol.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"datenorm/internal/storage"
	"datenorm/internal/table"
)

// Dialect is the Postgres flavour of storage.Dialect. Inserts go through
// COPY, so Placeholder is only used by ad-hoc statements.
var Dialect = storage.Dialect{
	Name:        "postgres",
	Quote:       storage.DoubleQuote,
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Types: map[table.Kind]string{
		table.KindText:      "TEXT",
		table.KindInteger:   "BIGINT",
		table.KindFloat:     "DOUBLE PRECISION",
		table.KindBool:      "BOOLEAN",
		table.KindDate:      "DATE",
		table.KindTimestamp: "TIMESTAMPTZ",
	},
	MaxParams: 65535,
}

// Repo implements storage.Repository for Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

// New creates a Postgres-backed Repo and verifies connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// ReadTable runs query and collects every row into a table.
func (r *Repo) ReadTable(ctx context.Context, query string) (*table.Table, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres query: %w", err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	names := make([]string, len(fds))
	for i, fd := range fds {
		names[i] = fd.Name
	}

	var records [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres values: %w", err)
		}
		for i := range vals {
			vals[i] = normalizePgValue(vals[i])
		}
		records = append(records, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table.FromRecords(names, records)
}

// WriteTable creates the schema and table if needed, then loads t with COPY
// inside one transaction.
func (r *Repo) WriteTable(ctx context.Context, name string, t *table.Table) (int64, error) {
	schemaSQL, tableSQL, err := buildCreateSQL(name, t)
	if err != nil {
		return 0, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if schemaSQL != "" {
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return 0, fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, tableSQL); err != nil {
		return 0, fmt.Errorf("create table %s: %w", name, err)
	}

	n, err := tx.CopyFrom(ctx, copyIdentifier(name), t.Names(), pgx.CopyFromRows(storage.SinkRecords(t, nil)))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// splitQualifiedName splits "schema.table". Anything other than exactly one
// dot is treated as an unqualified name.
func splitQualifiedName(name string) (schema string, tbl string) {
	name = strings.TrimSpace(name)
	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return "", name
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

func copyIdentifier(name string) pgx.Identifier {
	schema, tbl := splitQualifiedName(name)
	if schema == "" {
		return pgx.Identifier{tbl}
	}
	return pgx.Identifier{schema, tbl}
}

// buildCreateSQL builds the optional CREATE SCHEMA and the CREATE TABLE
// statements for name.
func buildCreateSQL(name string, t *table.Table) (schemaSQL, tableSQL string, err error) {
	if schema, _ := splitQualifiedName(name); schema != "" {
		schemaSQL = fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, Dialect.Quote(schema))
	}
	tableSQL, err = Dialect.CreateTableSQL(name, t)
	return schemaSQL, tableSQL, err
}

// normalizePgValue maps pgx-specific value types onto table cells.
func normalizePgValue(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(t).String()
	default:
		return storage.NormalizeValue(v)
	}
}
