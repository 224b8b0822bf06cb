// Package workspace provides per-request scratch directories that are always
// removed when released.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Workspace is a private temporary directory owned by one operation.
type Workspace struct {
	id   string
	root string

	once sync.Once
	err  error
}

// Acquire creates a new workspace under baseDir. An empty baseDir uses the
// OS temporary directory. Callers must defer Release.
func Acquire(baseDir, prefix string) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace base %s: %w", baseDir, err)
	}

	id := uuid.NewString()
	root := filepath.Join(baseDir, prefix+id)
	if err := os.Mkdir(root, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{id: id, root: root}, nil
}

// ID identifies the workspace in logs.
func (w *Workspace) ID() string { return w.id }

// Root returns the workspace directory.
func (w *Workspace) Root() string { return w.root }

// Path joins elem onto the workspace root.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.root}, elem...)...)
}

// Mkdir creates a subdirectory and returns its path.
func (w *Workspace) Mkdir(name string) (string, error) {
	dir := w.Path(name)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	return dir, nil
}

// Release removes the workspace and everything in it. It is safe to call
// more than once; later calls return the first result.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.root); err != nil {
			w.err = fmt.Errorf("remove workspace %s: %w", w.root, err)
		}
	})
	return w.err
}
