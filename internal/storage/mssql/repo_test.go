package mssql

import (
	"strings"
	"testing"
	"time"

	"datenorm/internal/table"
)

func TestMssqlIdent(t *testing.T) {
	t.Parallel()

	if got := mssqlIdent("a]b"); got != "[a]]b]" {
		t.Fatalf("mssqlIdent=%q", got)
	}
	if got := Dialect.QuoteTable("dbo.imports"); got != "[dbo].[imports]" {
		t.Fatalf("QuoteTable=%q", got)
	}
}

func TestCreateTableSQL_GuardedByObjectID(t *testing.T) {
	t.Parallel()

	tbl, err := table.New(
		table.Column{Name: "trade_date", Values: []any{time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)}},
		table.Column{Name: "note", Values: []any{"x"}},
	)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}

	got, err := Dialect.CreateTableSQL("dbo.rates", tbl)
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	want := "IF OBJECT_ID(N'[dbo].[rates]', N'U') IS NULL CREATE TABLE [dbo].[rates] ([trade_date] DATE, [note] NVARCHAR(MAX));"
	if got != want {
		t.Fatalf("CreateTableSQL=\n%s\nwant\n%s", got, want)
	}
}

func TestInsertSQL_StaysUnderParameterLimit(t *testing.T) {
	t.Parallel()

	cols := []string{"a", "b", "c"}
	batch := Dialect.BatchRows(len(cols))
	if batch*len(cols) > 2100 {
		t.Fatalf("batch of %d rows exceeds 2100 params", batch)
	}

	rows := make([][]any, batch)
	for i := range rows {
		rows[i] = []any{1, 2, 3}
	}
	q, args := Dialect.InsertSQL("t", cols, rows)
	if len(args) != batch*len(cols) {
		t.Fatalf("args=%d, want %d", len(args), batch*len(cols))
	}
	if !strings.HasPrefix(q, "INSERT INTO [t] ([a], [b], [c]) VALUES (@p1, @p2, @p3)") {
		t.Fatalf("unexpected insert prefix: %.80s", q)
	}
}
