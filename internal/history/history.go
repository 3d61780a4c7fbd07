// Package history implements snapshot-based undo/redo for an editing
// session. Every entry holds a full deep copy of the dataset, so memory
// cost grows with rows x columns x entries; that is a documented limit
// of the snapshot model, not an accident.
package history

import (
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tabloom/internal/dataset"
	"github.com/KaramelBytes/tabloom/internal/grid"
)

// Entry is one immutable snapshot on the stack.
type Entry struct {
	Dataset   *dataset.Dataset
	Timestamp time.Time
	Label     string
}

// Manager owns the snapshot stack and cursor. It writes to the grid on
// undo/redo through an apply path that never records, so replaying
// history can never grow history.
type Manager struct {
	entries []Entry
	current int
	grid    grid.Adapter
	logger  *zap.Logger
}

// NewManager returns an empty history bound to a grid adapter.
func NewManager(g grid.Adapter, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{current: -1, grid: g, logger: logger}
}

// Push records a snapshot. A dataset structurally equal to the current
// entry is a no-op. Otherwise any redo branch beyond the cursor is
// discarded, the snapshot is deep-copied in, and the cursor moves to it.
func (m *Manager) Push(ds *dataset.Dataset, label string) {
	if ds == nil {
		return
	}
	if m.current >= 0 && m.entries[m.current].Dataset.Equal(ds) {
		return
	}
	m.entries = m.entries[:m.current+1]
	m.entries = append(m.entries, Entry{
		Dataset:   ds.Clone(),
		Timestamp: time.Now(),
		Label:     label,
	})
	m.current = len(m.entries) - 1
	m.logger.Debug("history push",
		zap.String("label", label),
		zap.Int("entries", len(m.entries)),
		zap.Int("cursor", m.current))
}

// Undo steps the cursor back and applies that snapshot to the grid.
// Returns false at the boundary (nothing to undo).
func (m *Manager) Undo() bool {
	if m.current <= 0 {
		return false
	}
	m.current--
	m.applyCurrent()
	return true
}

// Redo steps the cursor forward and applies that snapshot to the grid.
// Returns false at the boundary (nothing to redo).
func (m *Manager) Redo() bool {
	if m.current < 0 || m.current >= len(m.entries)-1 {
		return false
	}
	m.current++
	m.applyCurrent()
	return true
}

// applyCurrent writes the cursor's snapshot to the grid. This is the
// apply-without-recording path: it must never call Push, directly or
// through a grid change hook consumer.
func (m *Manager) applyCurrent() {
	e := m.entries[m.current]
	if err := m.grid.LoadData(e.Dataset.Clone(), true); err != nil {
		m.logger.Warn("history apply failed", zap.String("label", e.Label), zap.Error(err))
	}
}

// CanUndo reports whether Undo would succeed.
func (m *Manager) CanUndo() bool { return m.current > 0 }

// CanRedo reports whether Redo would succeed.
func (m *Manager) CanRedo() bool { return m.current >= 0 && m.current < len(m.entries)-1 }

// Len returns the number of entries on the stack.
func (m *Manager) Len() int { return len(m.entries) }

// Cursor returns the current entry index, or -1 when empty.
func (m *Manager) Cursor() int { return m.current }

// Current returns a copy of the snapshot at the cursor, or nil when empty.
func (m *Manager) Current() *dataset.Dataset {
	if m.current < 0 {
		return nil
	}
	return m.entries[m.current].Dataset.Clone()
}

// CurrentLabel returns the operation label at the cursor.
func (m *Manager) CurrentLabel() string {
	if m.current < 0 {
		return ""
	}
	return m.entries[m.current].Label
}
