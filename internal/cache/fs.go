package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/codalotl/legallens/internal/q/cas"
)

// fsNamespace versions the on-disk layout of the fs backend.
const fsNamespace = "legallens-v1"

// FS stores each entry as a file in a sharded directory tree.
type FS struct {
	db *cas.DB
}

// OpenFS roots an FS store at dir. sizeLimit <= 0 means unlimited.
func OpenFS(dir string, sizeLimit int64) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cache: resolve %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create %q: %w", abs, err)
	}
	return &FS{db: &cas.DB{AbsRoot: abs, Namespace: fsNamespace, MaxBytes: sizeLimit}}, nil
}

func (f *FS) Get(key string) (string, bool, error) {
	b, ok, err := f.db.Retrieve(cas.HashOf(key))
	if err != nil || !ok {
		return "", false, err
	}
	return string(b), true, nil
}

func (f *FS) Put(key, value string) error {
	return f.db.Store(cas.HashOf(key), []byte(value))
}

func (f *FS) Stats() (Stats, error) {
	u, err := f.db.Usage()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Backend: BackendFS, Entries: u.Records, Bytes: u.Bytes, SizeLimit: f.db.MaxBytes}, nil
}

func (f *FS) Close() error { return nil }
