package directory

import "strings"

// NewRegistry opens the SQLite-backed registry when a path is
// configured, otherwise an in-memory one.
func NewRegistry(sqlitePath string) (Registry, error) {
	if strings.TrimSpace(sqlitePath) != "" {
		return NewSQLiteRegistry(sqlitePath)
	}
	return NewInMemoryRegistry(), nil
}
