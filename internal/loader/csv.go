// Package loader imports and exports datasets as CSV/TSV files. File
// parsing is a boundary concern: everything past this package works on
// the Dataset type only.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

// ReadCSV loads a CSV/TSV file into a Dataset. The first row is the
// header and fixes the canonical column order. Cell values are kept as
// strings; type coercion is left to whoever edits the data, so a freshly
// loaded file is always type-uniform.
func ReadCSV(path string, delimiter rune) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	delim := delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &dataset.Dataset{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	ds := &dataset.Dataset{Columns: columns}
	for rowNum := 1; ; rowNum++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", rowNum, err)
		}
		row := make(dataset.Record, len(columns))
		for j, c := range columns {
			if j < len(rec) {
				row[c] = rec[j]
			} else {
				row[c] = ""
			}
		}
		ds.Records = append(ds.Records, row)
	}
	return ds, nil
}

// WriteCSV exports a Dataset in canonical column order.
func WriteCSV(path string, ds *dataset.Dataset, delimiter rune) error {
	if ds == nil {
		return errors.New("write csv: nil dataset")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if delimiter != 0 {
		w.Comma = delimiter
	}
	if err := w.Write(ds.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(ds.Columns))
	for i, r := range ds.Records {
		for j, c := range ds.Columns {
			row[j] = dataset.CellString(r[c])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
