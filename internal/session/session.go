// Package session wires one editing session: a grid surface, its
// snapshot history, the command router, the quality analyzer, and the
// workspace the session persists into. The session is the only owner of
// its grid; nothing else writes to it concurrently.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabloom/internal/config"
	"github.com/KaramelBytes/tabloom/internal/dataset"
	"github.com/KaramelBytes/tabloom/internal/grid"
	"github.com/KaramelBytes/tabloom/internal/history"
	"github.com/KaramelBytes/tabloom/internal/loader"
	"github.com/KaramelBytes/tabloom/internal/quality"
	"github.com/KaramelBytes/tabloom/internal/remote"
	"github.com/KaramelBytes/tabloom/internal/router"
	"github.com/KaramelBytes/tabloom/internal/workspace"
)

// Session is one interactive editing session over a single dataset.
type Session struct {
	ID string

	grid     grid.Adapter
	history  *history.Manager
	router   *router.Router
	analyzer *quality.Analyzer
	ws       *workspace.Workspace
	logger   *zap.Logger
	errSigs  *signatureCache
}

// New builds a session from global configuration. name becomes the
// workspace directory under cfg.WorkspacesDir.
func New(cfg *config.Global, name string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := grid.NewMemoryGrid()
	h := history.NewManager(g, logger)
	ws := workspace.New(name, "", filepath.Join(cfg.WorkspacesDir, name))

	var rs router.RemoteService
	if cfg.RemoteURL != "" {
		rs = remote.NewClient(
			cfg.RemoteURL,
			cfg.APIKey,
			time.Duration(cfg.HTTPTimeoutSec)*time.Second,
			cfg.RetryMaxAttempts,
			time.Duration(cfg.RetryBaseDelayMs)*time.Millisecond,
			time.Duration(cfg.RetryMaxDelayMs)*time.Millisecond,
			logger,
		)
	}

	return &Session{
		ID:       uuid.NewString(),
		grid:     g,
		history:  h,
		router:   router.New(g, h, rs, ws, logger),
		analyzer: quality.NewAnalyzer(time.Duration(cfg.QualityCacheTTLSec)*time.Second, logger),
		ws:       ws,
		logger:   logger,
		errSigs:  newSignatureCache(256),
	}
}

// Grid exposes the session's grid adapter.
func (s *Session) Grid() grid.Adapter { return s.grid }

// History exposes the session's history manager.
func (s *Session) History() *history.Manager { return s.history }

// LoadCSV replaces the session dataset with the file contents and
// records the loaded state as the first history entry.
func (s *Session) LoadCSV(path string, delimiter rune) error {
	ds, err := loader.ReadCSV(path, delimiter)
	if err != nil {
		return err
	}
	if err := s.grid.LoadData(ds, true); err != nil {
		return err
	}
	s.history.Push(ds, "load "+filepath.Base(path))
	s.logger.Info("dataset loaded",
		zap.String("path", path),
		zap.Int("rows", ds.Rows()),
		zap.Int("columns", ds.Cols()))
	return nil
}

// Execute routes one free-text instruction.
func (s *Session) Execute(ctx context.Context, instruction string) router.Outcome {
	return s.router.Execute(ctx, instruction)
}

// EditCell commits one manual cell edit. Each discrete edit pushes
// exactly one history entry; intermediate keystrokes never reach this
// method, the UI calls it on commit only.
func (s *Session) EditCell(row, col int, value any) error {
	if err := s.grid.SetCell(row, col, value); err != nil {
		return err
	}
	s.errSigs.forgetCell(quality.CellRef(row, col))
	s.history.Push(s.grid.Snapshot(), fmt.Sprintf("edit %s", quality.CellRef(row, col)))
	return nil
}

// Quality returns the quality report for the current dataset, cached by
// structural fingerprint unless force is set.
func (s *Session) Quality(force bool) *quality.Report {
	return s.analyzer.Report(s.grid.Snapshot(), force)
}

// ShouldReportFormulaError reports whether a formula error at a cell is
// new for this session. Repeats of the same cell+formula+kind signature
// are suppressed until the cell's content changes.
func (s *Session) ShouldReportFormulaError(row, col int, formula, kind string) bool {
	key := fmt.Sprintf("%s|%s|%s", quality.CellRef(row, col), formula, kind)
	return s.errSigs.add(key)
}

// Save persists the current dataset into the workspace.
func (s *Session) Save() error { return s.ws.Save(s.grid.Snapshot()) }

// Export writes the current dataset as CSV and returns the path.
func (s *Session) Export() (string, error) { return s.ws.Export(s.grid.Snapshot()) }

// Dataset returns a copy of the current dataset.
func (s *Session) Dataset() *dataset.Dataset { return s.grid.Snapshot() }
