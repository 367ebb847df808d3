// Package duckdb registers the "duckdb" storage backend.
package duckdb

import (
	"context"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"datenorm/internal/storage"
	"datenorm/internal/table"
)

// Dialect is the DuckDB flavour of storage.Dialect.
var Dialect = storage.Dialect{
	Name:        "duckdb",
	Quote:       storage.DoubleQuote,
	Placeholder: storage.QuestionMark,
	Types: map[table.Kind]string{
		table.KindText:      "VARCHAR",
		table.KindInteger:   "BIGINT",
		table.KindFloat:     "DOUBLE",
		table.KindBool:      "BOOLEAN",
		table.KindDate:      "DATE",
		table.KindTimestamp: "TIMESTAMP",
	},
	MaxParams: 10000,
}

func init() {
	storage.Register("duckdb", New)
}

// New opens a DuckDB database. An empty DSN means ":memory:".
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	path := cfg.DSN
	if path == "" {
		path = ":memory:"
	}
	db, err := storage.OpenSQL(ctx, "duckdb", path)
	if err != nil {
		return nil, err
	}
	return &storage.SQLRepo{DB: db, Dialect: Dialect}, nil
}
