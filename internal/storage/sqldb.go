package storage

import (
	"context"
	"database/sql"
	"fmt"

	"datenorm/internal/table"
)

// SQLRepo implements Repository over database/sql for a given Dialect.
// Backends built on a database/sql driver embed or return it.
type SQLRepo struct {
	DB      *sql.DB
	Dialect Dialect

	// Bind converts a cell before it is sent to the driver. Nil means
	// identity.
	Bind func(any) any
}

// OpenSQL opens driverName with dsn and verifies connectivity.
func OpenSQL(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}
	return db, nil
}

// Close closes the underlying database.
func (r *SQLRepo) Close() {
	if r == nil || r.DB == nil {
		return
	}
	_ = r.DB.Close()
}

// ReadTable runs query and collects every row into a table.
func (r *SQLRepo) ReadTable(ctx context.Context, query string) (*table.Table, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", r.Dialect.Name, err)
	}
	defer rows.Close()
	return ScanTable(rows)
}

// WriteTable creates name if needed and inserts every row of t in one
// transaction, batching statements to the dialect's parameter limit.
func (r *SQLRepo) WriteTable(ctx context.Context, name string, t *table.Table) (int64, error) {
	ddl, err := r.Dialect.CreateTableSQL(name, t)
	if err != nil {
		return 0, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return 0, fmt.Errorf("create table %s: %w", name, err)
	}

	records := SinkRecords(t, r.Bind)
	cols := t.Names()
	batch := r.Dialect.BatchRows(len(cols))
	var total int64
	for start := 0; start < len(records); start += batch {
		end := min(start+batch, len(records))
		q, args := r.Dialect.InsertSQL(name, cols, records[start:end])
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return total, fmt.Errorf("insert into %s: %w", name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(end - start)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

// ScanTable reads all remaining rows into a table, normalizing each cell with
// NormalizeValue. The caller closes rows.
func ScanTable(rows *sql.Rows) (*table.Table, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var records [][]any
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for i := range vals {
			vals[i] = NormalizeValue(vals[i])
		}
		records = append(records, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table.FromRecords(names, records)
}

// SinkRecords returns t as row-major records ready for a driver. Cells of a
// mixed-kind column are rendered as text; every other cell goes through bind
// when bind is non-nil.
func SinkRecords(t *table.Table, bind func(any) any) [][]any {
	mixed := make([]bool, len(t.Columns))
	for i, c := range t.Columns {
		mixed[i] = table.ColumnKind(c.Values) == table.KindMixed
	}

	records := t.Records()
	for _, rec := range records {
		for j, v := range rec {
			switch {
			case v == nil:
			case mixed[j]:
				rec[j] = table.Stringify(v)
			case bind != nil:
				rec[j] = bind(v)
			}
		}
	}
	return records
}
