package json

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"datenorm/internal/table"
)

// DimsKey is the reserved key of a columnar document listing the columns.
const DimsKey = "dims"

// ColumnarKey returns the document key used for a column. A column literally
// named "dims" is written as "_dims" so it cannot collide with DimsKey.
func ColumnarKey(name string) string {
	if name == DimsKey {
		return "_" + DimsKey
	}
	return name
}

// WriteRecords writes t as a JSON array of objects, keys in column order.
func WriteRecords(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("[")
	for r := 0; r < t.Len(); r++ {
		if r > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("\n  {")
		for c, col := range t.Columns {
			if c > 0 {
				bw.WriteString(",")
			}
			if err := writeMember(bw, col.Name, col.Values[r]); err != nil {
				return err
			}
		}
		bw.WriteString("}")
	}
	if t.Len() > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("]\n")
	return bw.Flush()
}

// WriteKeyed writes t as one object whose members are rows keyed by the text
// of column key. A later row with the same key replaces an earlier one, and
// rows with a null key are dropped.
func WriteKeyed(w io.Writer, t *table.Table, key string) error {
	kc, ok := t.Column(key)
	if !ok {
		return fmt.Errorf("json: key column %q not found", key)
	}

	// Keep first-seen key order while letting later rows win.
	order := make([]string, 0, t.Len())
	last := make(map[string]int, t.Len())
	for r, v := range kc.Values {
		if v == nil {
			continue
		}
		k := table.Stringify(v)
		if _, ok := last[k]; !ok {
			order = append(order, k)
		}
		last[k] = r
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("{")
	for i, k := range order {
		if i > 0 {
			bw.WriteString(",")
		}
		kb, _ := json.Marshal(k)
		bw.WriteString("\n  ")
		bw.Write(kb)
		bw.WriteString(": {")
		r := last[k]
		for c, col := range t.Columns {
			if c > 0 {
				bw.WriteString(",")
			}
			if err := writeMember(bw, col.Name, col.Values[r]); err != nil {
				return err
			}
		}
		bw.WriteString("}")
	}
	if len(order) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

// WriteColumnar writes t as one object: DimsKey lists the column keys and
// every column is an array of its values.
func WriteColumnar(w io.Writer, t *table.Table) error {
	keys := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		keys[i] = ColumnarKey(col.Name)
	}

	bw := bufio.NewWriter(w)
	db, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("json: encode dims: %w", err)
	}
	bw.WriteString("{\n  \"" + DimsKey + "\": ")
	bw.Write(db)
	for i, col := range t.Columns {
		kb, _ := json.Marshal(keys[i])
		bw.WriteString(",\n  ")
		bw.Write(kb)
		bw.WriteString(": [")
		for r, v := range col.Values {
			if r > 0 {
				bw.WriteString(",")
			}
			vb, err := encodeCell(v)
			if err != nil {
				return fmt.Errorf("json: column %q row %d: %w", col.Name, r+1, err)
			}
			bw.Write(vb)
		}
		bw.WriteString("]")
	}
	bw.WriteString("\n}\n")
	return bw.Flush()
}

func writeMember(bw *bufio.Writer, name string, v any) error {
	kb, _ := json.Marshal(name)
	vb, err := encodeCell(v)
	if err != nil {
		return fmt.Errorf("json: column %q: %w", name, err)
	}
	bw.Write(kb)
	bw.WriteString(":")
	bw.Write(vb)
	return nil
}

// encodeCell renders dates as "YYYY-MM-DD" and timestamps as RFC 3339.
func encodeCell(v any) ([]byte, error) {
	if t, ok := v.(time.Time); ok {
		return json.Marshal(table.Stringify(t))
	}
	return json.Marshal(v)
}
