package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores entries in a single-table SQLite database. When the total payload size exceeds the size limit, the least recently stored entries are evicted.
type SQLite struct {
	db        *sql.DB
	sizeLimit int64
}

// OpenSQLite opens or creates the database at dbPath. Parent directories are created if they do not exist. sizeLimit <= 0 means unlimited.
func OpenSQLite(dbPath string, sizeLimit int64) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// Single-process, sequential access.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &SQLite{db: db, sizeLimit: sizeLimit}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		size INTEGER NOT NULL,
		stored_at INTEGER NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLite) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM entries WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Put replaces any existing entry. REPLACE deletes and re-inserts, so rowid order is store order.
func (s *SQLite) Put(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO entries (key, value, size, stored_at) VALUES (?, ?, ?, ?)",
		key, value, len(value), time.Now().Unix(),
	)
	if err != nil {
		return err
	}
	if s.sizeLimit > 0 {
		return s.cull(key)
	}
	return nil
}

// cull evicts the least recently stored entries until the total fits the limit. keep is never evicted.
func (s *SQLite) cull(keep string) error {
	total, err := s.totalSize()
	if err != nil {
		return err
	}
	for total > s.sizeLimit {
		var key string
		var size int64
		err := s.db.QueryRow("SELECT key, size FROM entries WHERE key != ? ORDER BY rowid ASC LIMIT 1", keep).Scan(&key, &size)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := s.db.Exec("DELETE FROM entries WHERE key = ?", key); err != nil {
			return err
		}
		total -= size
	}
	return nil
}

func (s *SQLite) totalSize() (int64, error) {
	var total int64
	err := s.db.QueryRow("SELECT COALESCE(SUM(size), 0) FROM entries").Scan(&total)
	return total, err
}

func (s *SQLite) Stats() (Stats, error) {
	st := Stats{Backend: BackendSQLite, SizeLimit: s.sizeLimit}
	err := s.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(size), 0) FROM entries").Scan(&st.Entries, &st.Bytes)
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
