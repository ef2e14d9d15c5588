// Package cache makes expensive, side-effecting calls (search requests, LLM completions) idempotent across process runs.
//
// Entries are keyed by a hash of the request's canonical content (see Key), and hold the raw response payload verbatim. Entries never expire. A Store may enforce
// a byte ceiling and evict old entries to stay under it; callers treat an evicted entry exactly like one that was never stored.
//
// The Store is passed explicitly to every component that needs it; there is no process-wide cache.
package cache

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/codalotl/legallens/internal/q/cas"
)

// Store is a durable key/value store. A missing key is not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Put(key, value string) error
}

// StoreCloser is a Store that holds resources (files, database handles).
type StoreCloser interface {
	Store
	io.Closer
}

// Stats describes a store's contents.
type Stats struct {
	Backend   string
	Entries   int
	Bytes     int64
	SizeLimit int64 // zero means unlimited
}

// StatsReporter is implemented by stores that can describe their contents.
type StatsReporter interface {
	Stats() (Stats, error)
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFS     = "fs"
	BackendMemory = "memory"
)

// DefaultSizeLimit is 64 GiB.
const DefaultSizeLimit int64 = 1 << 36

// Options configures Open.
type Options struct {
	Backend   string // one of the Backend* constants; empty means sqlite
	Path      string // directory holding the store
	SizeLimit int64  // byte ceiling; zero means DefaultSizeLimit, negative means unlimited
}

// Open opens the configured store, creating it if needed.
func Open(opts Options) (StoreCloser, error) {
	limit := opts.SizeLimit
	if limit == 0 {
		limit = DefaultSizeLimit
	}
	if limit < 0 {
		limit = 0
	}

	switch opts.Backend {
	case BackendSQLite, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("cache: sqlite backend needs a path")
		}
		return OpenSQLite(filepath.Join(opts.Path, "cache.db"), limit)
	case BackendFS:
		if opts.Path == "" {
			return nil, fmt.Errorf("cache: fs backend needs a path")
		}
		return OpenFS(opts.Path, limit)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", opts.Backend)
	}
}

// Key derives the lookup key for a call: the sha256 hex digest of tag (the call type) followed by the call's canonical text.
func Key(tag string, canonical string) string {
	return cas.NewBytesHasher([]byte(tag + canonical)).Hash()
}

// Fetch returns the payload stored under key. On a miss it performs call, stores the returned payload verbatim, and returns it. hit reports whether call was skipped.
//
// If call fails, nothing is stored and the error is returned unmodified.
func Fetch(store Store, key string, call func() (string, error)) (value string, hit bool, err error) {
	value, ok, err := store.Get(key)
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	if ok {
		return value, true, nil
	}

	value, err = call()
	if err != nil {
		return "", false, err
	}
	if err := store.Put(key, value); err != nil {
		return "", false, fmt.Errorf("cache put: %w", err)
	}
	return value, false, nil
}
