// Package csv reads delimited text into a table.Table and writes tables back
// out as CSV.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"datenorm/internal/table"
)

// Options controls CSV reading.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// NoHeader treats the first record as data; columns are named col_1, col_2, ...
	NoHeader bool
	// TrimSpace trims leading and trailing space from every field.
	TrimSpace bool
	// LazyQuotes is passed through to encoding/csv.
	LazyQuotes bool
	// HeaderMap renames source headers after trimming.
	HeaderMap map[string]string
	// SnakeHeaders lowercases unmapped headers and replaces spaces with '_'.
	SnakeHeaders bool
	// OnError receives malformed records, which are skipped. When nil the first
	// malformed record aborts the read.
	OnError func(line int, err error)
}

// ReadTable reads all of r into a table. Empty fields become nulls. Records
// shorter than the header are padded with nulls; extra fields are dropped.
func ReadTable(ctx context.Context, r io.Reader, opt Options) (*table.Table, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	line := 0
	readRec := func() ([]string, error) {
		line++
		return cr.Read()
	}

	var header []string
	var rows [][]any

	first, err := readRec()
	if errors.Is(err, io.EOF) {
		return table.New()
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	if opt.NoHeader {
		header = make([]string, len(first))
		for i := range first {
			header[i] = fmt.Sprintf("col_%d", i+1)
		}
		rows = append(rows, toCells(first, len(header), opt.TrimSpace))
	} else {
		header = normalizeHeader(first, opt)
	}

	for {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := readRec()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if opt.OnError == nil {
				return nil, fmt.Errorf("csv: line %d: %w", line, err)
			}
			opt.OnError(line, err)
			continue
		}
		rows = append(rows, toCells(rec, len(header), opt.TrimSpace))
	}

	return table.FromRecords(header, rows)
}

func normalizeHeader(hdr []string, opt Options) []string {
	out := make([]string, len(hdr))
	seen := make(map[string]bool, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		h = strings.TrimSpace(h)
		if mapped, ok := opt.HeaderMap[h]; ok {
			h = mapped
		} else if opt.SnakeHeaders {
			h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
		}
		if h == "" {
			h = fmt.Sprintf("col_%d", i+1)
		}
		// Duplicate headers get a numeric suffix.
		base := h
		for n := 2; seen[h]; n++ {
			h = fmt.Sprintf("%s_%d", base, n)
		}
		seen[h] = true
		out[i] = h
	}
	return out
}

func toCells(rec []string, width int, trim bool) []any {
	row := make([]any, width)
	for i := 0; i < width && i < len(rec); i++ {
		v := rec[i]
		if trim {
			v = strings.TrimSpace(v)
		}
		if v != "" {
			row[i] = v
		}
	}
	return row
}

// WriteTable writes t as CSV with a header row. Nulls become empty fields and
// dates without a time of day are written as YYYY-MM-DD.
func WriteTable(w io.Writer, t *table.Table, comma rune) error {
	cw := csv.NewWriter(w)
	if comma != 0 {
		cw.Comma = comma
	}
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for r := 0; r < t.Len(); r++ {
		for c, col := range t.Columns {
			rec[c] = table.Stringify(col.Values[r])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv: write row %d: %w", r+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
