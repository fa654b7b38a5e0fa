package otp

import (
	"strings"
	"time"
)

// NewService opens the SQLite-backed service when a path is configured,
// otherwise an in-memory one.
func NewService(sqlitePath string, ttl time.Duration) (Service, error) {
	if strings.TrimSpace(sqlitePath) != "" {
		return NewSQLiteService(sqlitePath, ttl)
	}
	return NewInMemoryService(ttl), nil
}
