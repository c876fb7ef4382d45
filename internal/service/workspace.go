package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/haatos/simple-qa/internal"
)

// Workspace hands out one directory per test run under root.
type Workspace struct {
	root string
}

func NewWorkspace(root string) *Workspace {
	return &Workspace{root: root}
}

func (w *Workspace) Root() string {
	return w.root
}

func (w *Workspace) Path(runID int64) string {
	return filepath.Join(w.root, fmt.Sprintf("%s%d", internal.WorkspaceDirPrefix, runID))
}

// Acquire creates an empty directory for runID. A directory left behind by
// an earlier attempt of the same run is removed first.
func (w *Workspace) Acquire(runID int64) (string, error) {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return "", fmt.Errorf("err creating workspace root: %w", err)
	}
	dir := w.Path(runID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if !os.IsExist(err) {
			return "", err
		}
		if err := os.RemoveAll(dir); err != nil {
			return "", err
		}
		if err := os.Mkdir(dir, 0o755); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func (w *Workspace) Release(dir string) error {
	return os.RemoveAll(dir)
}
