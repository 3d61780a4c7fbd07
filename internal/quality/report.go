// Package quality implements the deterministic data-quality analyzer:
// duplicate, missing-value, and type-consistency detection plus the
// weighted score that drives user-facing reports and recommended fixes.
package quality

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DuplicatePair locates one duplicated record by display row numbers.
// Display rows are 1-based with one extra row reserved for the header,
// so data row i reports as i+2.
type DuplicatePair struct {
	OriginalRow  int `json:"original_row"`
	DuplicateRow int `json:"duplicate_row"`
}

// Duplicates summarizes duplicate detection.
type Duplicates struct {
	Count     int             `json:"count"`
	Locations []DuplicatePair `json:"locations"`
}

// ColumnMissing accumulates missing cells for one column.
type ColumnMissing struct {
	Count    int      `json:"count"`
	CellRefs []string `json:"cell_refs"`
}

// MissingValues summarizes missing-value detection.
type MissingValues struct {
	TotalMissing int                      `json:"total_missing"`
	ByColumn     map[string]ColumnMissing `json:"by_column"`
}

// TypeExample is one (row, value, type) triple illustrating a mixed-type
// column. Row uses the same display convention as DuplicatePair.
type TypeExample struct {
	Row   int    `json:"row"`
	Value any    `json:"value"`
	Type  string `json:"type"`
}

// TypeIssue flags a column whose non-missing values span more than one
// primitive type.
type TypeIssue struct {
	Column   string        `json:"column"`
	Types    []string      `json:"types"`
	Examples []TypeExample `json:"examples"`
}

// Score is the weighted overall quality score with its grade band.
type Score struct {
	Score float64 `json:"score"`
	Grade string  `json:"grade"`
}

// Report is the full quality report over one dataset.
type Report struct {
	CheckID       string        `json:"check_id"`
	TotalRows     int           `json:"total_rows"`
	TotalColumns  int           `json:"total_columns"`
	Duplicates    Duplicates    `json:"duplicates"`
	MissingValues MissingValues `json:"missing_values"`
	TypeIssues    []TypeIssue   `json:"type_issues"`
	OverallScore  Score         `json:"overall_score"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// Recommendations returns canned fix instructions a presentation layer
// can feed straight back into the command router.
func (r *Report) Recommendations() []string {
	var recs []string
	if r.Duplicates.Count > 0 {
		recs = append(recs, "remove duplicates from this data")
	}
	if r.MissingValues.TotalMissing > 0 {
		recs = append(recs, "filter rows with missing values")
	}
	for _, ti := range r.TypeIssues {
		recs = append(recs, fmt.Sprintf("convert column %s to a single type", ti.Column))
	}
	return recs
}

// Markdown renders a compact text report suitable for terminal output.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[QUALITY SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.TotalRows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", r.TotalColumns))
	b.WriteString(fmt.Sprintf("Score: %.1f (%s)\n\n", r.OverallScore.Score, r.OverallScore.Grade))

	b.WriteString("[DUPLICATES]\n")
	if r.Duplicates.Count == 0 {
		b.WriteString("none\n")
	} else {
		b.WriteString(fmt.Sprintf("%d duplicated row(s)\n", r.Duplicates.Count))
		for _, p := range r.Duplicates.Locations {
			b.WriteString(fmt.Sprintf("- row %d duplicates row %d\n", p.DuplicateRow, p.OriginalRow))
		}
	}

	b.WriteString("\n[MISSING VALUES]\n")
	if r.MissingValues.TotalMissing == 0 {
		b.WriteString("none\n")
	} else {
		b.WriteString(fmt.Sprintf("%d missing cell(s)\n", r.MissingValues.TotalMissing))
		cols := make([]string, 0, len(r.MissingValues.ByColumn))
		for c := range r.MissingValues.ByColumn {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			cm := r.MissingValues.ByColumn[c]
			b.WriteString(fmt.Sprintf("- %s: %d (%s)\n", c, cm.Count, strings.Join(cm.CellRefs, ", ")))
		}
	}

	b.WriteString("\n[TYPE CONSISTENCY]\n")
	if len(r.TypeIssues) == 0 {
		b.WriteString("all columns uniform\n")
	} else {
		for _, ti := range r.TypeIssues {
			b.WriteString(fmt.Sprintf("- %s mixes %s\n", ti.Column, strings.Join(ti.Types, ", ")))
			for _, ex := range ti.Examples {
				b.WriteString(fmt.Sprintf("  • row %d: %v (%s)\n", ex.Row, ex.Value, ex.Type))
			}
		}
	}

	if recs := r.Recommendations(); len(recs) > 0 {
		b.WriteString("\n[RECOMMENDED FIXES]\n")
		for _, rec := range recs {
			b.WriteString("- ")
			b.WriteString(rec)
			b.WriteString("\n")
		}
	}
	return b.String()
}
