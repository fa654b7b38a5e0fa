package memory

import (
	"context"
	"time"
)

// Role distinguishes who produced a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn stores a single user or assistant conversational turn.
type Turn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// DayState tracks per-user greeting and name-capture progress for one
// calendar day. A new day supersedes the previous record.
type DayState struct {
	UserID    string    `json:"user_id"`
	Day       string    `json:"day"`
	Greeted   bool      `json:"greeted"`
	KnownName string    `json:"known_name,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DayOf formats a moment as the calendar-day key used by DayState.
func DayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Store persists and retrieves conversational memory.
type Store interface {
	// AppendTurn records a turn with the current timestamp.
	AppendTurn(ctx context.Context, userID string, role Role, content string) error

	// RecentTurns returns up to limit most recent turns for the user,
	// oldest first.
	RecentTurns(ctx context.Context, userID string, limit int) ([]Turn, error)

	// Trim deletes the oldest turns for a user until at most capacity
	// remain. Safe to call repeatedly and concurrently with appends.
	Trim(ctx context.Context, userID string, capacity int) error

	// DayStateFor returns the session state for (user, day), or nil when
	// none exists yet.
	DayStateFor(ctx context.Context, userID, day string) (*DayState, error)

	// PutDayState upserts the session state keyed by (user, day).
	PutDayState(ctx context.Context, state DayState) error

	Close() error
}
