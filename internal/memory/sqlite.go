package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists conversational memory in a local SQLite file.
// This is the default backend when no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
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
		CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_turns_user_created ON turns(user_id, created_at_ms);

		CREATE TABLE IF NOT EXISTS day_sessions (
			user_id TEXT NOT NULL,
			day TEXT NOT NULL,
			greeted INTEGER NOT NULL DEFAULT 0,
			known_name TEXT NOT NULL DEFAULT '',
			updated_at_ms INTEGER NOT NULL,
			PRIMARY KEY (user_id, day)
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AppendTurn(ctx context.Context, userID string, role Role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, user_id, role, content, created_at_ms) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(),
		userID,
		string(role),
		content,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentTurns(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, role, content, created_at_ms
		 FROM turns WHERE user_id=? ORDER BY created_at_ms DESC, rowid DESC LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent turns: %w", err)
	}
	defer rows.Close()

	items := make([]Turn, 0, limit)
	for rows.Next() {
		var t Turn
		var createdMS int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Role, &t.Content, &createdMS); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		t.CreatedAt = time.UnixMilli(createdMS).UTC()
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}

	// Reverse into chronological order for prompt coherence.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	return items, nil
}

func (s *SQLiteStore) Trim(ctx context.Context, userID string, capacity int) error {
	if capacity < 0 {
		capacity = 0
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM turns
		 WHERE user_id=? AND id NOT IN (
			SELECT id FROM turns WHERE user_id=?
			ORDER BY created_at_ms DESC, rowid DESC LIMIT ?
		 )`,
		userID,
		userID,
		capacity,
	)
	if err != nil {
		return fmt.Errorf("trim turns: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DayStateFor(ctx context.Context, userID, day string) (*DayState, error) {
	var st DayState
	var greeted int
	var updatedMS int64
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, day, greeted, known_name, updated_at_ms
		 FROM day_sessions WHERE user_id=? AND day=?`,
		userID,
		day,
	).Scan(&st.UserID, &st.Day, &greeted, &st.KnownName, &updatedMS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query day state: %w", err)
	}
	st.Greeted = greeted != 0
	st.UpdatedAt = time.UnixMilli(updatedMS).UTC()
	return &st, nil
}

func (s *SQLiteStore) PutDayState(ctx context.Context, state DayState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	greeted := 0
	if state.Greeted {
		greeted = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO day_sessions (user_id, day, greeted, known_name, updated_at_ms)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, day) DO UPDATE
		 SET greeted=excluded.greeted, known_name=excluded.known_name, updated_at_ms=excluded.updated_at_ms`,
		state.UserID,
		state.Day,
		greeted,
		state.KnownName,
		state.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put day state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
