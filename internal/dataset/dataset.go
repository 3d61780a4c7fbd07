// Package dataset defines the single internal representation of tabular
// data shared by the grid, history, router, and quality packages. A
// Dataset is an ordered sequence of records over one canonical column
// order; the column order is tracked explicitly and never derived from
// map key enumeration.
package dataset

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// cell values are scalars: string, float64, bool, or nil.

// Record maps column name to a scalar cell value. Every record in a
// Dataset carries an entry for every column; missing cells are stored
// as nil or empty string, never omitted.
type Record map[string]any

// Dataset is an ordered sequence of records sharing one column set.
type Dataset struct {
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// New builds a Dataset from a column order and records, normalizing each
// record so it has an entry for every column.
func New(columns []string, records []Record) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	ds := &Dataset{Columns: cols, Records: make([]Record, 0, len(records))}
	for _, r := range records {
		nr := make(Record, len(cols))
		for _, c := range cols {
			nr[c] = r[c]
		}
		ds.Records = append(ds.Records, nr)
	}
	return ds
}

// Empty reports whether the dataset has no rows.
func (d *Dataset) Empty() bool { return d == nil || len(d.Records) == 0 }

// Rows returns the number of records.
func (d *Dataset) Rows() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Cols returns the number of columns.
func (d *Dataset) Cols() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// Clone returns a deep copy. History snapshots rely on this being a full
// copy: mutating the original afterwards must not leak into the clone.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	cols := make([]string, len(d.Columns))
	copy(cols, d.Columns)
	recs := make([]Record, len(d.Records))
	for i, r := range d.Records {
		nr := make(Record, len(r))
		for k, v := range r {
			nr[k] = v
		}
		recs[i] = nr
	}
	return &Dataset{Columns: cols, Records: recs}
}

// Equal reports structural equality: same column order, same row order,
// and cell-by-cell equal values in canonical column order.
func (d *Dataset) Equal(o *Dataset) bool {
	if d == nil || o == nil {
		return d.Rows() == 0 && o.Rows() == 0 && d.Cols() == 0 && o.Cols() == 0
	}
	if len(d.Columns) != len(o.Columns) || len(d.Records) != len(o.Records) {
		return false
	}
	for i, c := range d.Columns {
		if o.Columns[i] != c {
			return false
		}
	}
	for i, r := range d.Records {
		or := o.Records[i]
		for _, c := range d.Columns {
			if !cellEqual(r[c], or[c]) {
				return false
			}
		}
	}
	return true
}

func cellEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	return a == b
}

// Key serializes a record into a stable string using the canonical column
// order. Two records with identical cell values produce identical keys,
// so the quality analyzer uses it for duplicate detection.
func (d *Dataset) Key(r Record) string {
	parts := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		parts[i] = CellString(r[c])
	}
	return strings.Join(parts, "\x1f")
}

// CellString renders a scalar cell for key serialization and CSV export.
// nil renders as the empty string.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		// trim trailing zeros so 3.0 and 3 serialize identically
		s := fmt.Sprintf("%g", x)
		return s
	default:
		return fmt.Sprint(x)
	}
}

// Fingerprint produces a cheap structural summary used by the quality
// cache to detect "unchanged since last analysis": row count, column
// order, first row, last row, and a checksum over the first five rows.
// It is not a content hash of the whole dataset.
func (d *Dataset) Fingerprint() string {
	if d == nil {
		return "empty"
	}
	h := sha1.New()
	fmt.Fprintf(h, "rows=%d|cols=%s|", len(d.Records), strings.Join(d.Columns, ","))
	if n := len(d.Records); n > 0 {
		fmt.Fprintf(h, "first=%s|last=%s|", d.Key(d.Records[0]), d.Key(d.Records[n-1]))
		sample := n
		if sample > 5 {
			sample = 5
		}
		for i := 0; i < sample; i++ {
			fmt.Fprintf(h, "r%d=%s|", i, d.Key(d.Records[i]))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ToRows converts the dataset into the header + 2D value layout the
// remote analysis service consumes. Values follow canonical column order.
func (d *Dataset) ToRows() (headers []string, rows [][]any) {
	if d == nil {
		return nil, nil
	}
	headers = make([]string, len(d.Columns))
	copy(headers, d.Columns)
	rows = make([][]any, len(d.Records))
	for i, r := range d.Records {
		row := make([]any, len(d.Columns))
		for j, c := range d.Columns {
			row[j] = r[c]
		}
		rows[i] = row
	}
	return headers, rows
}

// FromRows rebuilds a Dataset from the header + 2D value layout. Short
// rows are padded with nil so every record covers the full column set.
func FromRows(headers []string, rows [][]any) *Dataset {
	cols := make([]string, len(headers))
	copy(cols, headers)
	ds := &Dataset{Columns: cols, Records: make([]Record, 0, len(rows))}
	for _, row := range rows {
		r := make(Record, len(cols))
		for j, c := range cols {
			if j < len(row) {
				r[c] = row[j]
			} else {
				r[c] = nil
			}
		}
		ds.Records = append(ds.Records, r)
	}
	return ds
}

// Missing reports whether a cell value counts as missing: nil, empty
// string, or a string containing only whitespace.
func Missing(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// TypeName reports the primitive type of a cell value for the
// type-consistency check.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64, float32, int, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
