package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversational memory in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_turns_user_created ON turns (user_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS day_sessions (
			user_id TEXT NOT NULL,
			day TEXT NOT NULL,
			greeted BOOLEAN NOT NULL DEFAULT FALSE,
			known_name TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, day)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, userID string, role Role, content string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO turns (id, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(),
		userID,
		string(role),
		content,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentTurns(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, role, content, created_at
		 FROM turns WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`,
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
		if err := rows.Scan(&t.ID, &t.UserID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
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

func (s *PostgresStore) Trim(ctx context.Context, userID string, capacity int) error {
	if capacity < 0 {
		capacity = 0
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM turns
		 WHERE user_id=$1 AND id NOT IN (
			SELECT id FROM turns WHERE user_id=$1
			ORDER BY created_at DESC, id DESC LIMIT $2
		 )`,
		userID,
		capacity,
	)
	if err != nil {
		return fmt.Errorf("trim turns: %w", err)
	}
	return nil
}

func (s *PostgresStore) DayStateFor(ctx context.Context, userID, day string) (*DayState, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, day, greeted, known_name, updated_at
		 FROM day_sessions WHERE user_id=$1 AND day=$2`,
		userID,
		day,
	)
	if err != nil {
		return nil, fmt.Errorf("query day state: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate day state: %w", err)
		}
		return nil, nil
	}
	var st DayState
	if err := rows.Scan(&st.UserID, &st.Day, &st.Greeted, &st.KnownName, &st.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan day state: %w", err)
	}
	return &st, nil
}

func (s *PostgresStore) PutDayState(ctx context.Context, state DayState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO day_sessions (user_id, day, greeted, known_name, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, day) DO UPDATE
		 SET greeted=EXCLUDED.greeted, known_name=EXCLUDED.known_name, updated_at=EXCLUDED.updated_at`,
		state.UserID,
		state.Day,
		state.Greeted,
		state.KnownName,
		state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put day state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
