// Package grid defines the adapter contract between the editing core and
// whatever component actually renders and edits cells. Router, history,
// and session code only ever see this interface, so the concrete surface
// (a third-party grid, a terminal table, a test fake) stays swappable.
package grid

import "github.com/KaramelBytes/tabloom/internal/dataset"

// Adapter is the read/write contract the editing core requires from a
// grid component. Implementations own presentation state (column widths,
// formatting); the core owns the data and its history.
type Adapter interface {
	// Snapshot returns a deep copy of the grid's current contents as a
	// Dataset in canonical column order.
	Snapshot() *dataset.Dataset
	// SetCell writes one cell. Row and column are zero-based data
	// coordinates (the header row is not addressable).
	SetCell(row, col int, value any) error
	// LoadData replaces or appends grid contents. When clearExisting is
	// true the previous contents (and formulas) are dropped first.
	LoadData(ds *dataset.Dataset, clearExisting bool) error
	// ClearSheet removes all rows, columns, widths, and formats.
	ClearSheet()
	// SetFormula attaches a formula to a cell without evaluating it here;
	// evaluation belongs to the rendering surface.
	SetFormula(row, col int, formula string) error
	// OnChange registers a hook invoked after any cell commit.
	OnChange(fn func())

	// Presentation directives used by locally-resolved instructions.
	AutoFitColumns() error
	AdjustColumnWidth(col, delta int) error
	ApplyFormat(style string) error
}
