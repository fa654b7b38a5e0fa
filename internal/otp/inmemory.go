package otp

import (
	"context"
	"sync"
	"time"
)

type pendingCode struct {
	code     string
	issuedAt time.Time
}

// InMemoryService keeps pending codes in process memory. Used in tests
// and when no database path is configured.
type InMemoryService struct {
	mu      sync.Mutex
	pending map[string][]pendingCode
	ttl     time.Duration
	now     func() time.Time
}

func NewInMemoryService(ttl time.Duration) *InMemoryService {
	return &InMemoryService{
		pending: make(map[string][]pendingCode),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *InMemoryService) Issue(ctx context.Context, phone string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	code, err := randomCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.pending[phone] = append(s.pending[phone], pendingCode{code: code, issuedAt: s.now()})
	s.mu.Unlock()
	return code, nil
}

func (s *InMemoryService) Verify(ctx context.Context, phone, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := false
	kept := s.pending[phone][:0]
	for _, pc := range s.pending[phone] {
		if pc.issuedAt.Before(cutoff) {
			continue
		}
		if pc.code == code {
			matched = true
			continue
		}
		kept = append(kept, pc)
	}
	if len(kept) == 0 {
		delete(s.pending, phone)
	} else {
		s.pending[phone] = kept
	}
	return matched, nil
}

func (s *InMemoryService) Close() error { return nil }
