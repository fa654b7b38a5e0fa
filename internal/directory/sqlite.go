package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRegistry persists API keys in a local SQLite file. It can share
// the file with the memory store; each component owns its own tables.
type SQLiteRegistry struct {
	db *sql.DB
}

func NewSQLiteRegistry(path string) (*SQLiteRegistry, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db at %s: %w", path, err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS api_users (
			number TEXT PRIMARY KEY,
			api_key TEXT NOT NULL UNIQUE
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init api_users schema: %w", err)
	}

	return &SQLiteRegistry{db: db}, nil
}

func (r *SQLiteRegistry) Allow(ctx context.Context, number string) (string, error) {
	existing, err := r.Recover(ctx, number)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	for i := 0; i < mintAttempts; i++ {
		key, err := randomKey()
		if err != nil {
			return "", err
		}
		if _, err := r.Authenticate(ctx, key); err == nil {
			// Key already held by another number.
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return "", err
		}
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO api_users (number, api_key) VALUES (?, ?)`, number, key); err != nil {
			return "", fmt.Errorf("register key for %s: %w", number, err)
		}
		return key, nil
	}
	return "", fmt.Errorf("register key for %s: key space exhausted", number)
}

func (r *SQLiteRegistry) Recover(ctx context.Context, number string) (string, error) {
	var key string
	err := r.db.QueryRowContext(ctx,
		`SELECT api_key FROM api_users WHERE number = ?`, number).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("recover key for %s: %w", number, err)
	}
	return key, nil
}

func (r *SQLiteRegistry) Authenticate(ctx context.Context, key string) (string, error) {
	var number string
	err := r.db.QueryRowContext(ctx,
		`SELECT number FROM api_users WHERE api_key = ?`, key).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("authenticate key: %w", err)
	}
	return number, nil
}

func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}
