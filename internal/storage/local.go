package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local writes files into a directory, creating it if needed.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir %s: %w", dir, err)
	}
	return &Local{dir: dir}, nil
}

// Create truncates any existing file of the same name.
func (l *Local) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return os.Create(l.Location(name))
}

func (l *Local) Location(name string) string {
	return filepath.Join(l.dir, name)
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("storage: invalid object name %q", name)
	}
	return nil
}
