package scratch

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is a per-run scratch directory. Every intermediate file of a run
// is created under it so that a single Remove reclaims everything the
// run left behind, whichever way the run ended.
type Dir struct {
	path string
}

func NewDir() (*Dir, error) {
	path, err := os.MkdirTemp("", "mediascribe-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string { return d.path }

func (d *Dir) Join(name string) string { return filepath.Join(d.path, name) }

func (d *Dir) Remove() error {
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("removing scratch dir: %w", err)
	}
	return nil
}
