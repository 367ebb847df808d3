// Package json reads JSON records into a table.Table and writes tables as
// record arrays, keyed objects, or columnar documents.
package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"datenorm/internal/table"
)

// Options controls JSON reading.
type Options struct {
	// ArrayJoinSeparator flattens arrays of strings into one scalar.
	// Defaults to ",".
	ArrayJoinSeparator string
}

// record is one decoded object with its keys in document order.
type record struct {
	keys []string
	vals map[string]any
}

// ReadTable decodes r into a table.
//
// Accepted shapes:
//   - a root array of objects (null elements are skipped)
//   - a root object holding an array of objects (the first such field is used)
//   - a single root object, read as one record
//
// Objects may follow the root value, one per line. Columns appear in the
// order their keys are first seen; a key missing from a record is null.
func ReadTable(ctx context.Context, r io.Reader, opt Options) (*table.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	sep := opt.ArrayJoinSeparator
	if sep == "" {
		sep = ","
	}

	var recs []record
	emit := func(rec record) error {
		recs = append(recs, rec)
		if len(recs)%1024 == 0 {
			return ctx.Err()
		}
		return nil
	}

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return table.New()
	}
	if err != nil {
		return nil, fmt.Errorf("json: read first token: %w", err)
	}

	d, ok := tok.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("json: unsupported root token %T (want object or array)", tok)
	}
	switch d {
	case '[':
		if err := readArrayOfObjects(dec, emit); err != nil {
			return nil, err
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, err
		}
	case '{':
		single, err := readEnvelopeOrSingle(dec, emit)
		if err != nil {
			return nil, err
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		if single != nil {
			if err := emit(*single); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("json: unsupported root delimiter %q", d)
	}

	if err := readTrailingObjects(dec, emit); err != nil {
		return nil, err
	}
	return buildTable(recs, sep)
}

func buildTable(recs []record, sep string) (*table.Table, error) {
	var header []string
	seen := map[string]bool{}
	for _, rec := range recs {
		for _, k := range rec.keys {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}

	rows := make([][]any, len(recs))
	for i, rec := range recs {
		row := make([]any, len(header))
		for j, k := range header {
			row[j] = toCell(rec.vals[k], sep)
		}
		rows[i] = row
	}
	return table.FromRecords(header, rows)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	end, err := dec.Token()
	if err != nil {
		return fmt.Errorf("json: read %q: %w", want, err)
	}
	if end != want {
		return fmt.Errorf("json: expected %q, got %v", want, end)
	}
	return nil
}

func readTrailingObjects(dec *json.Decoder, emit func(record) error) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("json: decode trailing object: %w", err)
		}
		if tok != json.Delim('{') {
			return fmt.Errorf("json: trailing value is not an object (got %v)", tok)
		}
		rec, err := readObject(dec)
		if err != nil {
			return err
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
}

// readArrayOfObjects reads elements of the current array (after '[').
func readArrayOfObjects(dec *json.Decoder, emit func(record) error) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: decode array element: %w", err)
		}
		if tok == nil {
			continue
		}
		if tok != json.Delim('{') {
			return fmt.Errorf("json: array element not an object (got %v)", tok)
		}
		rec, err := readObject(dec)
		if err != nil {
			return err
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
	return nil
}

// readEnvelopeOrSingle walks a root object (after '{'). The first field holding
// an array is streamed as the records and the remaining fields are skipped.
// Without such a field the object itself is returned as a single record.
func readEnvelopeOrSingle(dec *json.Decoder, emit func(record) error) (*record, error) {
	single := record{vals: map[string]any{}}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: read value of %q: %w", key, err)
		}
		if valTok == json.Delim('[') {
			if err := readArrayOfObjects(dec, emit); err != nil {
				return nil, err
			}
			if err := expectDelim(dec, ']'); err != nil {
				return nil, err
			}
			for dec.More() {
				if _, err := readKey(dec); err != nil {
					return nil, err
				}
				if _, err := materialize(dec, nil); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}
		v, err := materialize(dec, valTok)
		if err != nil {
			return nil, err
		}
		single.keys = append(single.keys, key)
		single.vals[key] = v
	}
	return &single, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("json: read object key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("json: object key not a string (got %T)", tok)
	}
	return key, nil
}

// readObject reads the members of an object whose '{' was consumed.
func readObject(dec *json.Decoder) (record, error) {
	rec := record{vals: map[string]any{}}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return rec, err
		}
		v, err := materialize(dec, nil)
		if err != nil {
			return rec, err
		}
		if _, dup := rec.vals[key]; !dup {
			rec.keys = append(rec.keys, key)
		}
		rec.vals[key] = v
	}
	return rec, expectDelim(dec, '}')
}

// materialize builds the Go value of the next JSON value. If tok is non-nil
// it is the value's already-consumed first token.
func materialize(dec *json.Decoder, tok json.Token) (any, error) {
	if tok == nil {
		t, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: read value: %w", err)
		}
		tok = t
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		rec, err := readObject(dec)
		if err != nil {
			return nil, err
		}
		return rec.vals, nil
	case '[':
		var arr []any
		for dec.More() {
			v, err := materialize(dec, nil)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, err
		}
		if arr == nil {
			arr = []any{}
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("json: unexpected delimiter %q", d)
	}
}

// toCell maps a decoded JSON value onto the table cell set. Integral numbers
// become int64, other numbers float64, arrays of strings are joined with sep
// and any other composite is kept as its JSON text.
func toCell(v any, sep string) any {
	switch t := v.(type) {
	case nil, string, bool:
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		ss := make([]string, 0, len(t))
		for _, it := range t {
			if it == nil {
				continue
			}
			s, ok := it.(string)
			if !ok {
				return compactJSON(t)
			}
			ss = append(ss, s)
		}
		return strings.Join(ss, sep)
	default:
		return compactJSON(t)
	}
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
