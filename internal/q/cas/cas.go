package cas

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Hasher identifies a CAS record by hash.
type Hasher interface {
	// Hash must be filesystem-safe with no path separators.
	Hash() string
}

type stringHasher string

func (h stringHasher) Hash() string { return string(h) }

// NewBytesHasher returns a Hasher for the bytes.
func NewBytesHasher(b []byte) Hasher {
	sum := sha256.Sum256(b)
	return stringHasher(hex.EncodeToString(sum[:]))
}

// HashOf returns a Hasher for an already-computed hash string.
func HashOf(hash string) Hasher {
	return stringHasher(hash)
}

// DB is a filesystem-backed payload store rooted at AbsRoot.
type DB struct {
	AbsRoot string

	// Namespace separates different kinds of payloads (ex: "legallens-v1"). Must be filesystem-safe.
	Namespace string

	// MaxBytes caps the total payload bytes in Namespace. Zero or negative means unlimited.
	MaxBytes int64
}

// Usage reports how much is stored in the namespace.
type Usage struct {
	Records int
	Bytes   int64
}

// Store writes payload for hasher.Hash(). Writing identical bytes to an existing record is a no-op. Writes are atomic (temp file + rename).
func (db *DB) Store(hasher Hasher, payload []byte) error {
	finalPath, err := db.pathFor(hasher)
	if err != nil {
		return err
	}

	if existing, err := os.ReadFile(finalPath); err == nil && bytes.Equal(existing, payload) {
		return nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(finalPath), "cas-tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if _, err := tmp.Write(payload); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		return err
	}

	if db.MaxBytes > 0 {
		return db.evict(finalPath)
	}
	return nil
}

// Retrieve loads the payload for hasher.Hash(). It returns whether the payload was found. A missing record is not, by itself, an error.
func (db *DB) Retrieve(hasher Hasher) ([]byte, bool, error) {
	p, err := db.pathFor(hasher)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// Usage walks the namespace and totals its records.
func (db *DB) Usage() (Usage, error) {
	records, err := db.records()
	if err != nil {
		return Usage{}, err
	}
	var u Usage
	for _, r := range records {
		u.Records++
		u.Bytes += r.size
	}
	return u, nil
}

type recordInfo struct {
	path    string
	size    int64
	modTime time.Time
}

func (db *DB) records() ([]recordInfo, error) {
	if err := db.validate(); err != nil {
		return nil, err
	}
	nsRoot := filepath.Join(db.AbsRoot, db.Namespace)
	var out []recordInfo
	err := filepath.WalkDir(nsRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == nsRoot {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "cas-tmp-") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, recordInfo{path: p, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// evict removes the oldest records until the namespace fits in MaxBytes. keep is never removed.
func (db *DB) evict(keep string) error {
	records, err := db.records()
	if err != nil {
		return err
	}
	var total int64
	for _, r := range records {
		total += r.size
	}
	if total <= db.MaxBytes {
		return nil
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].modTime.Equal(records[j].modTime) {
			return records[i].path < records[j].path
		}
		return records[i].modTime.Before(records[j].modTime)
	})

	for _, r := range records {
		if total <= db.MaxBytes {
			break
		}
		if r.path == keep {
			continue
		}
		if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		total -= r.size
	}
	return nil
}

func (db *DB) validate() error {
	if db.AbsRoot == "" {
		return errors.New("DB.AbsRoot is empty")
	}
	return validatePathSegment("namespace", db.Namespace)
}

func (db *DB) pathFor(hasher Hasher) (string, error) {
	if err := db.validate(); err != nil {
		return "", err
	}
	if hasher == nil {
		return "", errors.New("hasher is nil")
	}
	hash := hasher.Hash()
	if err := validatePathSegment("hash", hash); err != nil {
		return "", err
	}
	if len(hash) < 3 {
		return "", fmt.Errorf("hash %q is too short", hash)
	}
	return filepath.Join(db.AbsRoot, db.Namespace, hash[:2], hash[2:]), nil
}

func validatePathSegment(name, s string) error {
	if s == "" {
		return fmt.Errorf("%s is empty", name)
	}
	// Disallow both separators to be safe cross-platform.
	if strings.Contains(s, "/") || strings.Contains(s, `\`) {
		return fmt.Errorf("%s %q must not contain path separators", name, s)
	}
	return nil
}
