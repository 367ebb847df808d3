package csv

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"datenorm/internal/table"
)

func TestReadTable_HeaderAndNulls(t *testing.T) {
	t.Parallel()

	in := "\ufeff Trade Date ,qty,note\n2020/01/31, 5 ,\n2020/02/01,7\n"
	tbl, err := ReadTable(context.Background(), strings.NewReader(in), Options{TrimSpace: true})
	if err != nil {
		t.Fatalf("ReadTable() err=%v", err)
	}

	if got, want := tbl.Names(), []string{"Trade Date", "qty", "note"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names()=%v, want %v", got, want)
	}
	want := [][]any{{"2020/01/31", "5", nil}, {"2020/02/01", "7", nil}}
	if got := tbl.Records(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Records()=%v, want %v", got, want)
	}
}

func TestReadTable_HeaderOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		opt  Options
		want []string
	}{
		{
			name: "snake_headers",
			in:   "Trade Date;Settle Date\n",
			opt:  Options{Comma: ';', SnakeHeaders: true},
			want: []string{"trade_date", "settle_date"},
		},
		{
			name: "header_map_wins",
			in:   "Trade Date,Qty\n",
			opt:  Options{SnakeHeaders: true, HeaderMap: map[string]string{"Trade Date": "td"}},
			want: []string{"td", "qty"},
		},
		{
			name: "duplicates_and_blanks",
			in:   "a,a,,a\n",
			want: []string{"a", "a_2", "col_3", "a_3"},
		},
		{
			name: "no_header",
			in:   "1,2\n",
			opt:  Options{NoHeader: true},
			want: []string{"col_1", "col_2"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tbl, err := ReadTable(context.Background(), strings.NewReader(tc.in), tc.opt)
			if err != nil {
				t.Fatalf("ReadTable() err=%v", err)
			}
			if got := tbl.Names(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Names()=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestReadTable_NoHeaderKeepsFirstRow(t *testing.T) {
	t.Parallel()

	tbl, err := ReadTable(context.Background(), strings.NewReader("1,2\n3\n"), Options{NoHeader: true})
	if err != nil {
		t.Fatalf("ReadTable() err=%v", err)
	}
	if got, want := tbl.Records(), [][]any{{"1", "2"}, {"3", nil}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Records()=%v, want %v", got, want)
	}
}

func TestReadTable_MalformedRecords(t *testing.T) {
	t.Parallel()

	in := "a,b\n1,2\n\"x,3\n"
	if _, err := ReadTable(context.Background(), strings.NewReader(in), Options{}); err == nil {
		t.Fatalf("ReadTable() err=nil, want parse error")
	}

	var lines []int
	tbl, err := ReadTable(context.Background(), strings.NewReader(in), Options{
		OnError: func(line int, err error) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("ReadTable() with OnError err=%v", err)
	}
	if tbl.Len() != 1 || len(lines) != 1 {
		t.Fatalf("rows=%d errors=%v, want 1 row and 1 error", tbl.Len(), lines)
	}
}

func TestReadTable_Empty(t *testing.T) {
	t.Parallel()

	tbl, err := ReadTable(context.Background(), strings.NewReader(""), Options{})
	if err != nil {
		t.Fatalf("ReadTable() err=%v", err)
	}
	if tbl.Len() != 0 || len(tbl.Columns) != 0 {
		t.Fatalf("want empty table, got %d cols", len(tbl.Columns))
	}
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	tbl, err := table.New(
		table.Column{Name: "date", Values: []any{time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), nil}},
		table.Column{Name: "qty", Values: []any{int64(5), 2.5}},
		table.Column{Name: "note", Values: []any{"a,b", true}},
	)
	if err != nil {
		t.Fatalf("table.New() err=%v", err)
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, tbl, 0); err != nil {
		t.Fatalf("WriteTable() err=%v", err)
	}
	want := "date,qty,note\n2020-01-31,5,\"a,b\"\n,2.5,true\n"
	if buf.String() != want {
		t.Fatalf("WriteTable()=%q, want %q", buf.String(), want)
	}
}
