package quality

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

// headerOffset converts a zero-based data row index into a display row
// number: rows are 1-based and row 1 is reserved for column headers.
const headerOffset = 2

const maxTypeExamples = 5

// Analyze computes a full quality report over the dataset. It is a pure
// function: no caching, no side effects, no history interaction.
func Analyze(ds *dataset.Dataset) *Report {
	rep := &Report{
		CheckID:       uuid.NewString(),
		TotalRows:     ds.Rows(),
		TotalColumns:  ds.Cols(),
		MissingValues: MissingValues{ByColumn: map[string]ColumnMissing{}},
		GeneratedAt:   time.Now(),
	}
	if ds.Empty() {
		rep.OverallScore = scoreOf(0, 0, 0, 0, 0)
		return rep
	}

	rep.Duplicates = findDuplicates(ds)
	rep.MissingValues = findMissing(ds)
	rep.TypeIssues = findTypeIssues(ds)
	rep.OverallScore = scoreOf(
		rep.Duplicates.Count,
		rep.TotalRows,
		rep.MissingValues.TotalMissing,
		rep.TotalRows*rep.TotalColumns,
		len(rep.TypeIssues),
	)
	return rep
}

// findDuplicates serializes each record in canonical column order and
// reports every record whose key was already seen.
func findDuplicates(ds *dataset.Dataset) Duplicates {
	seen := make(map[string]int, ds.Rows())
	var out Duplicates
	for i, r := range ds.Records {
		key := ds.Key(r)
		if first, ok := seen[key]; ok {
			out.Locations = append(out.Locations, DuplicatePair{
				OriginalRow:  first + headerOffset,
				DuplicateRow: i + headerOffset,
			})
			continue
		}
		seen[key] = i
	}
	out.Count = len(out.Locations)
	return out
}

func findMissing(ds *dataset.Dataset) MissingValues {
	out := MissingValues{ByColumn: map[string]ColumnMissing{}}
	for i, r := range ds.Records {
		for j, c := range ds.Columns {
			if !dataset.Missing(r[c]) {
				continue
			}
			cm := out.ByColumn[c]
			cm.Count++
			cm.CellRefs = append(cm.CellRefs, CellRef(i, j))
			out.ByColumn[c] = cm
			out.TotalMissing++
		}
	}
	return out
}

// CellRef renders a zero-based (row, col) pair as a spreadsheet-style
// reference like "A4". Column letters are single-letter only, so columns
// beyond index 25 are a known limitation of this reference form.
func CellRef(row, col int) string {
	return fmt.Sprintf("%c%d", rune('A'+col), row+headerOffset)
}

func findTypeIssues(ds *dataset.Dataset) []TypeIssue {
	var issues []TypeIssue
	for _, c := range ds.Columns {
		types := map[string]bool{}
		var examples []TypeExample
		for i, r := range ds.Records {
			v := r[c]
			if dataset.Missing(v) {
				continue
			}
			tn := dataset.TypeName(v)
			types[tn] = true
			if len(examples) < maxTypeExamples {
				examples = append(examples, TypeExample{Row: i + headerOffset, Value: v, Type: tn})
			}
		}
		if len(types) <= 1 {
			continue
		}
		names := make([]string, 0, len(types))
		for tn := range types {
			names = append(names, tn)
		}
		sort.Strings(names)
		issues = append(issues, TypeIssue{Column: c, Types: names, Examples: examples})
	}
	return issues
}

// scoreOf starts at 100 and subtracts independently-capped penalties,
// each applied only when its trigger count is nonzero.
func scoreOf(dupRows, totalRows, missingCells, totalCells, typeIssueCols int) Score {
	score := 100.0
	if dupRows > 0 && totalRows > 0 {
		p := float64(dupRows) / float64(totalRows) * 100 * 2
		if p > 40 {
			p = 40
		}
		score -= p
	}
	if missingCells > 0 && totalCells > 0 {
		p := float64(missingCells)/float64(totalCells)*100*10 + 5
		if p > 30 {
			p = 30
		}
		score -= p
	}
	if typeIssueCols > 0 {
		p := float64(typeIssueCols) * 5
		if p > 25 {
			p = 25
		}
		score -= p
	}
	if score < 0 {
		score = 0
	}
	return Score{Score: score, Grade: gradeOf(score)}
}

func gradeOf(score float64) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 75:
		return "Good"
	case score >= 60:
		return "Fair"
	default:
		return "Poor"
	}
}
