// Package otp issues and verifies short-lived numeric verification
// codes delivered over WhatsApp.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	codeMin  = 1000
	codeSpan = 9000
)

// Service issues four-digit codes and verifies them within a TTL.
type Service interface {
	// Issue mints a new code for phone and records its issue time.
	Issue(ctx context.Context, phone string) (string, error)

	// Verify reports whether code was issued to phone and has not
	// expired. A successful verification consumes the code.
	Verify(ctx context.Context, phone, code string) (bool, error)

	Close() error
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%04d", codeMin+n.Int64()), nil
}

func nowMs(now func() time.Time) int64 {
	return now().UnixMilli()
}
