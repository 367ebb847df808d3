package json

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"datenorm/internal/table"
)

func readString(t *testing.T, in string) *table.Table {
	t.Helper()
	tbl, err := ReadTable(context.Background(), strings.NewReader(in), Options{})
	if err != nil {
		t.Fatalf("ReadTable() err=%v", err)
	}
	return tbl
}

func TestReadTable_RootArrayAndTrailingJSONL(t *testing.T) {
	t.Parallel()

	in := `[
		{"date": "2020/01/31", "qty": 1, "tags": ["x", "y"]},
		null,
		{"qty": 2.5, "date": null, "extra": true}
	]
	{"date": "2020/02/01", "qty": 3, "tags": []}`

	tbl := readString(t, in)

	if got, want := tbl.Names(), []string{"date", "qty", "tags", "extra"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names()=%v, want %v", got, want)
	}
	want := [][]any{
		{"2020/01/31", int64(1), "x,y", nil},
		{nil, 2.5, nil, true},
		{"2020/02/01", int64(3), "", nil},
	}
	if got := tbl.Records(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Records()=%#v, want %#v", got, want)
	}
}

func TestReadTable_Envelope(t *testing.T) {
	t.Parallel()

	in := `{"meta": {"page": 1}, "rows": [{"a": "1"}, {"a": "2"}], "next": null}`
	tbl := readString(t, in)

	if got, want := tbl.Records(), [][]any{{"1"}, {"2"}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Records()=%v, want %v", got, want)
	}
}

func TestReadTable_SingleObject(t *testing.T) {
	t.Parallel()

	tbl := readString(t, `{"b": 1, "a": {"x": [1, 2]}}`)

	if got, want := tbl.Names(), []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names()=%v, want %v", got, want)
	}
	if got, want := tbl.Records(), [][]any{{int64(1), `{"x":[1,2]}`}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Records()=%v, want %v", got, want)
	}
}

func TestReadTable_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{name: "scalar_root", in: `42`},
		{name: "array_of_scalars", in: `[1, 2]`},
		{name: "truncated", in: `[{"a": 1}`},
		{name: "trailing_scalar", in: `[{"a": 1}] 7`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ReadTable(context.Background(), strings.NewReader(tc.in), Options{}); err == nil {
				t.Fatalf("ReadTable(%q) err=nil, want error", tc.in)
			}
		})
	}
}

func TestReadTable_Empty(t *testing.T) {
	t.Parallel()

	if tbl := readString(t, ""); len(tbl.Columns) != 0 {
		t.Fatalf("want no columns, got %v", tbl.Names())
	}
}

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.Column{Name: "Date", Values: []any{time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)}},
		table.Column{Name: "dims", Values: []any{int64(1), nil}},
	)
	if err != nil {
		t.Fatalf("table.New() err=%v", err)
	}
	return tbl
}

func TestWriteColumnar_RenamesDims(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteColumnar(&buf, sampleTable(t)); err != nil {
		t.Fatalf("WriteColumnar() err=%v", err)
	}
	want := "{\n  \"dims\": [\"Date\",\"_dims\"],\n  \"Date\": [\"2020-01-31\",\"2020-02-01\"],\n  \"_dims\": [1,null]\n}\n"
	if buf.String() != want {
		t.Fatalf("WriteColumnar()=\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestColumnarKey(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{"dims": "_dims", "Dims": "Dims", "_dims": "_dims", "date": "date"} {
		if got := ColumnarKey(in); got != want {
			t.Fatalf("ColumnarKey(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestWriteRecords_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteRecords(&buf, sampleTable(t)); err != nil {
		t.Fatalf("WriteRecords() err=%v", err)
	}
	back := readString(t, buf.String())
	want := [][]any{{"2020-01-31", int64(1)}, {"2020-02-01", nil}}
	if got := back.Records(); !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip=%v, want %v", got, want)
	}
}

func TestWriteKeyed(t *testing.T) {
	t.Parallel()

	tbl, err := table.New(
		table.Column{Name: "Date", Values: []any{"2020-01-01", "2020-01-02", "2020-01-01", nil}},
		table.Column{Name: "close", Values: []any{1.5, 2.0, 3.5, 4.0}},
	)
	if err != nil {
		t.Fatalf("table.New() err=%v", err)
	}

	var buf bytes.Buffer
	if err := WriteKeyed(&buf, tbl, "Date"); err != nil {
		t.Fatalf("WriteKeyed() err=%v", err)
	}
	want := "{\n  \"2020-01-01\": {\"Date\":\"2020-01-01\",\"close\":3.5},\n  \"2020-01-02\": {\"Date\":\"2020-01-02\",\"close\":2}\n}\n"
	if buf.String() != want {
		t.Fatalf("WriteKeyed()=\n%s\nwant\n%s", buf.String(), want)
	}

	if err := WriteKeyed(&buf, tbl, "missing"); err == nil {
		t.Fatalf("WriteKeyed(missing) err=nil, want error")
	}
}
