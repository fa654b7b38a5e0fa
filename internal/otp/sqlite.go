package otp

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteService persists pending codes so they survive restarts within
// their validity window.
type SQLiteService struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLiteService(path string, ttl time.Duration) (*SQLiteService, error) {
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
		CREATE TABLE IF NOT EXISTS verification_codes (
			phone TEXT NOT NULL,
			code TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_codes_phone ON verification_codes(phone, created_at_ms);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init verification_codes schema: %w", err)
	}

	return &SQLiteService{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLiteService) Issue(ctx context.Context, phone string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO verification_codes (phone, code, created_at_ms) VALUES (?, ?, ?)`,
		phone, code, nowMs(s.now)); err != nil {
		return "", fmt.Errorf("record code for %s: %w", phone, err)
	}
	return code, nil
}

func (s *SQLiteService) Verify(ctx context.Context, phone, code string) (bool, error) {
	cutoff := nowMs(s.now) - s.ttl.Milliseconds()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM verification_codes WHERE phone = ? AND code = ? AND created_at_ms > ?`,
		phone, code, cutoff).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("verify code for %s: %w", phone, err)
	}
	if count == 0 {
		return false, nil
	}

	// Consume the matched code and drop anything already expired.
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE phone = ? AND (code = ? OR created_at_ms <= ?)`,
		phone, code, cutoff); err != nil {
		return false, fmt.Errorf("consume code for %s: %w", phone, err)
	}
	return true, nil
}

func (s *SQLiteService) Close() error {
	return s.db.Close()
}
