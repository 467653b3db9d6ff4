package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bassista/go_pagewatch/internal/fingerprint"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS baseline (
	target      TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	updated_at  INTEGER NOT NULL
)`

// SQLiteStore keeps one row per target in a local SQLite database. The
// fingerprint column holds the same canonical text as the file backend.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

func NewSQLiteStore(path, key string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("sqlite state key is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db, key: key}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (fingerprint.Hash, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT fingerprint FROM baseline WHERE target = ?`, s.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fingerprint.Hash{}, false, nil
	}
	if err != nil {
		return fingerprint.Hash{}, false, fmt.Errorf("query baseline: %w", err)
	}

	h, err := fingerprint.Parse(raw)
	if err != nil {
		return fingerprint.Hash{}, false, fmt.Errorf("%w: target %s: %v", ErrInvalidState, s.key, err)
	}
	return h, true, nil
}

// Save upserts the row in a single statement.
func (s *SQLiteStore) Save(ctx context.Context, h fingerprint.Hash) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO baseline (target, fingerprint, updated_at) VALUES (?, ?, ?)
ON CONFLICT(target) DO UPDATE SET fingerprint = excluded.fingerprint, updated_at = excluded.updated_at`,
		s.key, h.String(), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert baseline: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
