package storage

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"testing"
	"time"

	"datenorm/internal/table"
)

var testDialect = Dialect{
	Name:        "test",
	Quote:       DoubleQuote,
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Types: map[table.Kind]string{
		table.KindText:    "TEXT",
		table.KindInteger: "BIGINT",
		table.KindDate:    "DATE",
	},
	MaxParams: 10,
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	tbl, err := table.New(
		table.Column{Name: "trade_date", Values: []any{time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), nil}},
		table.Column{Name: "qty", Values: []any{int64(1), nil}},
		table.Column{Name: `odd"name`, Values: []any{nil, nil}},
		table.Column{Name: "price", Values: []any{1.5, nil}},
	)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}

	got, err := testDialect.CreateTableSQL("public.rates", tbl)
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	want := `CREATE TABLE IF NOT EXISTS "public"."rates" ("trade_date" DATE, "qty" BIGINT, "odd""name" TEXT, "price" TEXT)`
	if got != want {
		t.Fatalf("CreateTableSQL=\n%s\nwant\n%s", got, want)
	}

	if _, err := testDialect.CreateTableSQL(" ", tbl); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := testDialect.CreateTableSQL("x", &table.Table{}); err == nil {
		t.Fatalf("expected error for no columns")
	}
}

func TestCreateTableSQL_CustomWrapper(t *testing.T) {
	t.Parallel()

	d := testDialect
	d.CreateIfMissing = func(q, defs string) string { return "MAKE " + q + " <" + defs + ">" }
	tbl, _ := table.New(table.Column{Name: "a", Values: []any{"x"}})

	got, err := d.CreateTableSQL("t", tbl)
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	if got != `MAKE "t" <"a" TEXT>` {
		t.Fatalf("unexpected ddl: %q", got)
	}
}

func TestInsertSQL_PlaceholdersAndArgs(t *testing.T) {
	t.Parallel()

	q, args := testDialect.InsertSQL("t", []string{"a", "b"}, [][]any{{1, 2}, {3, nil}})

	want := `INSERT INTO "t" ("a", "b") VALUES ($1, $2), ($3, $4)`
	if q != want {
		t.Fatalf("InsertSQL=%q, want %q", q, want)
	}
	if !reflect.DeepEqual(args, []any{1, 2, 3, nil}) {
		t.Fatalf("args=%v", args)
	}
	if strings.Count(q, "$") != len(args) {
		t.Fatalf("placeholder count mismatch")
	}
}

func TestBatchRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		max, cols, want int
	}{
		{10, 3, 3},
		{10, 20, 1},
		{0, 1, 999},
		{10, 0, 0},
	}
	for _, tt := range tests {
		d := Dialect{MaxParams: tt.max}
		if got := d.BatchRows(tt.cols); got != tt.want {
			t.Fatalf("BatchRows(max=%d, cols=%d)=%d, want %d", tt.max, tt.cols, got, tt.want)
		}
	}
}

func TestNormalizeValue(t *testing.T) {
	t.Parallel()

	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		in   any
		want any
	}{
		{nil, nil},
		{[]byte("abc"), "abc"},
		{int32(7), int64(7)},
		{uint16(7), int64(7)},
		{float32(1.5), 1.5},
		{true, true},
		{ts, ts},
		{big.NewInt(42), int64(42)},
		{struct{ A int }{1}, "{1}"},
	}
	for _, tt := range tests {
		if got := NormalizeValue(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("NormalizeValue(%#v)=%#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestSinkRecords(t *testing.T) {
	t.Parallel()

	tbl, err := table.New(
		table.Column{Name: "mixed", Values: []any{"a", int64(2), nil}},
		table.Column{Name: "n", Values: []any{int64(1), int64(2), nil}},
	)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	double := func(v any) any { return v.(int64) * 2 }

	got := SinkRecords(tbl, double)

	want := [][]any{{"a", int64(2)}, {"2", int64(4)}, {nil, nil}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SinkRecords=%#v, want %#v", got, want)
	}
	if tbl.Columns[1].Values[0] != int64(1) {
		t.Fatalf("table modified")
	}
}
