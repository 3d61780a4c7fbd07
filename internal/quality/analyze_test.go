package quality

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

func TestAnalyzeConcreteScenario(t *testing.T) {
	ds := dataset.New([]string{"A", "B"}, []dataset.Record{
		{"A": "1", "B": "x"},
		{"A": "1", "B": "x"},
		{"A": "", "B": "y"},
	})
	rep := Analyze(ds)

	require.Equal(t, 3, rep.TotalRows)
	require.Equal(t, 2, rep.TotalColumns)

	require.Equal(t, 1, rep.Duplicates.Count)
	require.Len(t, rep.Duplicates.Locations, 1)
	assert.Equal(t, 2, rep.Duplicates.Locations[0].OriginalRow)
	assert.Equal(t, 3, rep.Duplicates.Locations[0].DuplicateRow)

	require.Equal(t, 1, rep.MissingValues.TotalMissing)
	cm, ok := rep.MissingValues.ByColumn["A"]
	require.True(t, ok)
	assert.Equal(t, 1, cm.Count)
	assert.Equal(t, []string{"A4"}, cm.CellRefs)

	assert.Empty(t, rep.TypeIssues, "uniformly string-typed columns are not flagged")

	// duplicate penalty caps at 40 (1/3*100*2 > 40); missing penalty
	// caps at 30 (1/6*100*10+5 > 30); no type penalty
	assert.InDelta(t, 30.0, rep.OverallScore.Score, 1e-9)
	assert.Equal(t, "Poor", rep.OverallScore.Grade)
}

func TestAnalyzeEmptyDataset(t *testing.T) {
	rep := Analyze(&dataset.Dataset{})
	assert.Equal(t, 0, rep.TotalRows)
	assert.Equal(t, 100.0, rep.OverallScore.Score)
	assert.Equal(t, "Excellent", rep.OverallScore.Grade)
	assert.Equal(t, 0, rep.Duplicates.Count)
	assert.Equal(t, 0, rep.MissingValues.TotalMissing)
	assert.Empty(t, rep.TypeIssues)
}

func TestTypeIssues(t *testing.T) {
	ds := dataset.New([]string{"N"}, []dataset.Record{
		{"N": "1"},
		{"N": float64(2)},
		{"N": "3"},
		{"N": float64(4)},
		{"N": true},
		{"N": "6"},
		{"N": ""},
	})
	rep := Analyze(ds)
	require.Len(t, rep.TypeIssues, 1)
	ti := rep.TypeIssues[0]
	assert.Equal(t, "N", ti.Column)
	assert.Equal(t, []string{"boolean", "number", "string"}, ti.Types)
	assert.Len(t, ti.Examples, 5, "at most five examples are reported")
	assert.Equal(t, 2, ti.Examples[0].Row, "example rows use the header offset")
}

// buildDataset produces baseRows unique rows over two columns, then
// appends dupRows copies of tail rows and blanks B in the first
// missingCells rows. Column A stays unique so missing cells never
// create accidental duplicates.
func buildDataset(baseRows, dupRows, missingCells int) *dataset.Dataset {
	recs := make([]dataset.Record, 0, baseRows+dupRows)
	for i := 0; i < baseRows; i++ {
		b := any(fmt.Sprintf("b%d", i))
		if i < missingCells {
			b = ""
		}
		recs = append(recs, dataset.Record{"A": fmt.Sprintf("a%d", i), "B": b})
	}
	for i := 0; i < dupRows; i++ {
		j := baseRows - 1 - i
		recs = append(recs, dataset.Record{"A": fmt.Sprintf("a%d", j), "B": fmt.Sprintf("b%d", j)})
	}
	return dataset.New([]string{"A", "B"}, recs)
}

func TestScoreMonotonicity(t *testing.T) {
	base := Analyze(buildDataset(100, 1, 1)).OverallScore.Score

	moreDups := Analyze(buildDataset(100, 5, 1)).OverallScore.Score
	assert.LessOrEqual(t, moreDups, base, "more duplicates never raises the score")

	moreMissing := Analyze(buildDataset(100, 1, 10)).OverallScore.Score
	assert.LessOrEqual(t, moreMissing, base, "more missing cells never raises the score")

	for _, s := range []float64{base, moreDups, moreMissing} {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
	}
}

func TestScorePenaltyCaps(t *testing.T) {
	// every row duplicated, every cell missing on a second column, and
	// a mixed-type third column: all three penalties hit their caps
	recs := []dataset.Record{
		{"A": "same", "B": "", "C": "s"},
		{"A": "same", "B": "", "C": float64(1)},
		{"A": "same", "B": "", "C": "s"},
	}
	rep := Analyze(dataset.New([]string{"A", "B", "C"}, recs))
	// 100 - 40 (dup cap) - 30 (missing cap) - 5 (one mixed column) = 25
	assert.InDelta(t, 25.0, rep.OverallScore.Score, 1e-9)
	assert.Equal(t, "Poor", rep.OverallScore.Grade)
}

func TestScoreFloor(t *testing.T) {
	s := scoreOf(100, 100, 100, 100, 10)
	assert.Equal(t, 0.0, s.Score, "score never goes below zero")
}

func TestGradeBands(t *testing.T) {
	assert.Equal(t, "Excellent", gradeOf(90))
	assert.Equal(t, "Good", gradeOf(75))
	assert.Equal(t, "Fair", gradeOf(60))
	assert.Equal(t, "Poor", gradeOf(59.9))
}

func TestCellRef(t *testing.T) {
	assert.Equal(t, "A2", CellRef(0, 0))
	assert.Equal(t, "C5", CellRef(3, 2))
}

func TestRecommendations(t *testing.T) {
	ds := dataset.New([]string{"A"}, []dataset.Record{
		{"A": "1"}, {"A": "1"}, {"A": ""},
	})
	recs := Analyze(ds).Recommendations()
	assert.Contains(t, recs, "remove duplicates from this data")
	assert.Contains(t, recs, "filter rows with missing values")
}

func TestMarkdownSections(t *testing.T) {
	ds := dataset.New([]string{"A"}, []dataset.Record{{"A": "1"}, {"A": "1"}})
	md := Analyze(ds).Markdown()
	for _, section := range []string{"[QUALITY SUMMARY]", "[DUPLICATES]", "[MISSING VALUES]", "[TYPE CONSISTENCY]", "[RECOMMENDED FIXES]"} {
		assert.Contains(t, md, section)
	}
	assert.Contains(t, md, "row 3 duplicates row 2")
}
