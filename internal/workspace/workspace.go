// Package workspace persists an editing session's dataset on disk: one
// directory per workspace with a pretty-printed JSON state file and
// atomic writes.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabloom/internal/dataset"
	"github.com/KaramelBytes/tabloom/internal/loader"
	"github.com/KaramelBytes/tabloom/internal/utils"
)

const stateFileName = "workspace.json"

// Workspace is the persisted form of one editing session.
type Workspace struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Source    string           `json:"source,omitempty"`
	Dataset   *dataset.Dataset `json:"dataset"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	rootDir string
}

// New constructs an in-memory workspace rooted at dir. Call Save to persist.
func New(name, source, dir string) *Workspace {
	return &Workspace{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		Dataset:   &dataset.Dataset{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		rootDir:   dir,
	}
}

// Load reads a workspace.json from the provided directory.
func Load(dir string) (*Workspace, error) {
	path := filepath.Join(dir, stateFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var w Workspace
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	w.rootDir = dir
	return &w, nil
}

// RootDir returns the on-disk workspace directory.
func (w *Workspace) RootDir() string { return w.rootDir }

// Save implements the router's Saver contract for the "save" command:
// it replaces the stored dataset and writes the state file atomically.
func (w *Workspace) Save(ds *dataset.Dataset) error {
	if w.rootDir == "" {
		return errors.New("workspace root directory not set")
	}
	if err := utils.EnsureDir(w.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	if ds != nil {
		w.Dataset = ds.Clone()
	}
	w.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(w)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.rootDir, stateFileName), data)
}

// Export writes the dataset as CSV next to the state file and returns
// the file path. It implements the router's Saver contract for the
// "export" command.
func (w *Workspace) Export(ds *dataset.Dataset) (string, error) {
	if w.rootDir == "" {
		return "", errors.New("workspace root directory not set")
	}
	if err := utils.EnsureDir(w.rootDir); err != nil {
		return "", fmt.Errorf("ensure dir: %w", err)
	}
	name := w.Name
	if name == "" {
		name = "dataset"
	}
	path := filepath.Join(w.rootDir, name+".csv")
	if err := loader.WriteCSV(path, ds, 0); err != nil {
		return "", err
	}
	return path, nil
}
