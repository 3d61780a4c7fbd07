package grid

import (
	"fmt"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

const defaultColumnWidth = 100

// MemoryGrid is an in-process Adapter implementation. The CLI session
// uses it as its editing surface and tests use it as a fake for the
// third-party grid component.
type MemoryGrid struct {
	data     *dataset.Dataset
	widths   map[int]int
	autoFit  bool
	format   string
	formulas map[[2]int]string
	hooks    []func()
}

// NewMemoryGrid returns an empty grid.
func NewMemoryGrid() *MemoryGrid {
	return &MemoryGrid{
		data:     &dataset.Dataset{},
		widths:   make(map[int]int),
		formulas: make(map[[2]int]string),
	}
}

// Snapshot returns a deep copy of the current contents.
func (g *MemoryGrid) Snapshot() *dataset.Dataset { return g.data.Clone() }

// SetCell writes one cell and fires change hooks.
func (g *MemoryGrid) SetCell(row, col int, value any) error {
	if row < 0 || row >= g.data.Rows() {
		return fmt.Errorf("set cell: row %d out of range [0,%d)", row, g.data.Rows())
	}
	if col < 0 || col >= g.data.Cols() {
		return fmt.Errorf("set cell: column %d out of range [0,%d)", col, g.data.Cols())
	}
	g.data.Records[row][g.data.Columns[col]] = value
	delete(g.formulas, [2]int{row, col})
	g.fire()
	return nil
}

// LoadData replaces or appends the grid contents.
func (g *MemoryGrid) LoadData(ds *dataset.Dataset, clearExisting bool) error {
	if ds == nil {
		return fmt.Errorf("load data: nil dataset")
	}
	if clearExisting || g.data.Empty() {
		g.data = ds.Clone()
		g.formulas = make(map[[2]int]string)
		g.fire()
		return nil
	}
	if len(g.data.Columns) != len(ds.Columns) {
		return fmt.Errorf("load data: appending %d columns onto %d", len(ds.Columns), len(g.data.Columns))
	}
	appended := ds.Clone()
	g.data.Records = append(g.data.Records, appended.Records...)
	g.fire()
	return nil
}

// ClearSheet drops all contents and presentation state.
func (g *MemoryGrid) ClearSheet() {
	g.data = &dataset.Dataset{}
	g.widths = make(map[int]int)
	g.formulas = make(map[[2]int]string)
	g.autoFit = false
	g.format = ""
	g.fire()
}

// SetFormula records a formula for a cell.
func (g *MemoryGrid) SetFormula(row, col int, formula string) error {
	if row < 0 || row >= g.data.Rows() || col < 0 || col >= g.data.Cols() {
		return fmt.Errorf("set formula: cell (%d,%d) out of range", row, col)
	}
	g.formulas[[2]int{row, col}] = formula
	g.fire()
	return nil
}

// Formula returns the formula attached to a cell, if any.
func (g *MemoryGrid) Formula(row, col int) (string, bool) {
	f, ok := g.formulas[[2]int{row, col}]
	return f, ok
}

// OnChange registers a hook invoked after any cell commit.
func (g *MemoryGrid) OnChange(fn func()) { g.hooks = append(g.hooks, fn) }

// AutoFitColumns switches every column to automatic width.
func (g *MemoryGrid) AutoFitColumns() error {
	g.autoFit = true
	g.widths = make(map[int]int)
	return nil
}

// AdjustColumnWidth widens or narrows one column by delta pixels.
func (g *MemoryGrid) AdjustColumnWidth(col, delta int) error {
	if col < 0 || col >= g.data.Cols() {
		return fmt.Errorf("adjust width: column %d out of range [0,%d)", col, g.data.Cols())
	}
	w, ok := g.widths[col]
	if !ok {
		w = defaultColumnWidth
	}
	w += delta
	if w < 10 {
		w = 10
	}
	g.widths[col] = w
	g.autoFit = false
	return nil
}

// ColumnWidth reports the explicit width of a column, or the default.
func (g *MemoryGrid) ColumnWidth(col int) int {
	if w, ok := g.widths[col]; ok {
		return w
	}
	return defaultColumnWidth
}

// AutoFit reports whether automatic column sizing is active.
func (g *MemoryGrid) AutoFit() bool { return g.autoFit }

// ApplyFormat records a sheet-wide formatting style keyword.
func (g *MemoryGrid) ApplyFormat(style string) error {
	if style == "" {
		return fmt.Errorf("apply format: empty style")
	}
	g.format = style
	return nil
}

// Format reports the active formatting style keyword.
func (g *MemoryGrid) Format() string { return g.format }

func (g *MemoryGrid) fire() {
	for _, fn := range g.hooks {
		fn()
	}
}
