package directory

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryRegistry keeps keys in process memory. Used in tests and when
// no database path is configured.
type InMemoryRegistry struct {
	mu       sync.RWMutex
	byNumber map[string]string
	byKey    map[string]string
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		byNumber: make(map[string]string),
		byKey:    make(map[string]string),
	}
}

func (r *InMemoryRegistry) Allow(ctx context.Context, number string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if key, ok := r.byNumber[number]; ok {
		return key, nil
	}
	for i := 0; i < mintAttempts; i++ {
		key, err := randomKey()
		if err != nil {
			return "", err
		}
		if _, taken := r.byKey[key]; taken {
			continue
		}
		r.byNumber[number] = key
		r.byKey[key] = number
		return key, nil
	}
	return "", fmt.Errorf("register key for %s: key space exhausted", number)
}

func (r *InMemoryRegistry) Recover(ctx context.Context, number string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.byNumber[number]
	if !ok {
		return "", ErrNotFound
	}
	return key, nil
}

func (r *InMemoryRegistry) Authenticate(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	number, ok := r.byKey[key]
	if !ok {
		return "", ErrNotFound
	}
	return number, nil
}

func (r *InMemoryRegistry) Close() error { return nil }
