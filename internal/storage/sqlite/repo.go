// Package sqlite registers the "sqlite" storage backend on modernc.org/sqlite.
package sqlite

import (
	"context"
	"time"

	_ "modernc.org/sqlite"

	"datenorm/internal/storage"
	"datenorm/internal/table"
)

// Dialect is the SQLite flavour of storage.Dialect.
//
// SQLite has no native DATE or TIMESTAMP type, so date cells are stored as
// ISO-8601 text (YYYY-MM-DD, RFC3339Nano for timestamps) for reliable
// round trips.
var Dialect = storage.Dialect{
	Name:        "sqlite",
	Quote:       storage.DoubleQuote,
	Placeholder: storage.QuestionMark,
	Types: map[table.Kind]string{
		table.KindText:      "TEXT",
		table.KindInteger:   "INTEGER",
		table.KindFloat:     "REAL",
		table.KindBool:      "INTEGER",
		table.KindDate:      "TEXT",
		table.KindTimestamp: "TEXT",
	},
	MaxParams: 32766,
}

func init() {
	storage.Register("sqlite", New)
}

// New opens a SQLite database at cfg.DSN (a file path or ":memory:").
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := storage.OpenSQL(ctx, "sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	return &storage.SQLRepo{DB: db, Dialect: Dialect, Bind: bindValue}, nil
}

func bindValue(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if table.KindOfValue(t) == table.KindDate {
		return t.Format(time.DateOnly)
	}
	return t.UTC().Format(time.RFC3339Nano)
}
