// Package sqlite provides a SQLite-backed durable mapping.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/louisbranch/kvmcp/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/kvmcp/internal/platform/timeouts"
	"github.com/louisbranch/kvmcp/internal/services/kv/storage"
	"github.com/louisbranch/kvmcp/internal/services/kv/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists kv entries in a single SQLite table. Keys enumerate in
// insertion order: upserts keep the original rowid.
type Store struct {
	mu    sync.RWMutex
	sqlDB *sql.DB
}

// Open opens a SQLite store at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cleanPath := filepath.Clean(path)
	dsn := fmt.Sprintf(
		"%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cleanPath,
		timeouts.SQLiteBusy.Milliseconds(),
	)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Opener returns a storage.Opener that opens the store at path on first use.
func Opener(path string) storage.Opener {
	return func(ctx context.Context) (storage.Mapping, error) {
		return Open(ctx, path)
	}
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	return err
}

// Get returns the payload stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	db, unlock, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var payload []byte
	err = db.QueryRowContext(ctx, "SELECT payload FROM kv_entries WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %q: %w", key, err)
	}
	return payload, nil
}

// Set upserts the payload stored under key.
func (s *Store) Set(ctx context.Context, key string, payload []byte) error {
	db, unlock, err := s.db(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if payload == nil {
		payload = []byte{}
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO kv_entries (key, payload) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET payload = excluded.payload
`, key, payload)
	if err != nil {
		return fmt.Errorf("set entry %q: %w", key, err)
	}
	return nil
}

// Delete removes key if present.
func (s *Store) Delete(ctx context.Context, key string) error {
	db, unlock, err := s.db(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := db.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete entry %q: %w", key, err)
	}
	return nil
}

// Keys lists every key in insertion order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	db, unlock, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rows, err := db.QueryContext(ctx, "SELECT key FROM kv_entries ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

func (s *Store) db(ctx context.Context) (*sql.DB, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if s == nil {
		return nil, nil, fmt.Errorf("storage is not configured")
	}
	s.mu.RLock()
	if s.sqlDB == nil {
		s.mu.RUnlock()
		return nil, nil, storage.ErrClosed
	}
	return s.sqlDB, s.mu.RUnlock, nil
}

var _ storage.Mapping = (*Store)(nil)
