// Package directory maintains the phone-number to API-key registry used
// to gate the outbound messaging and OTP endpoints.
package directory

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrNotFound is returned when no key is registered for a lookup.
var ErrNotFound = errors.New("directory: not found")

// Registry stores one API key per phone number. Keys are five-digit
// numeric strings, unique across the registry.
type Registry interface {
	// Allow returns the key already registered for number, or mints a
	// new unique one and persists it.
	Allow(ctx context.Context, number string) (string, error)

	// Recover returns the key registered for number, or ErrNotFound.
	Recover(ctx context.Context, number string) (string, error)

	// Authenticate resolves a presented key back to its phone number,
	// or ErrNotFound when the key is not registered.
	Authenticate(ctx context.Context, key string) (string, error)

	Close() error
}

const (
	keyMin  = 10000
	keySpan = 90000

	// mintAttempts bounds the retry loop when the key space is crowded.
	mintAttempts = 64
)

func randomKey() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(keySpan))
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return fmt.Sprintf("%05d", keyMin+n.Int64()), nil
}
