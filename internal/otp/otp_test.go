package otp

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

var codePattern = regexp.MustCompile(`^\d{4}$`)

func TestIssueAndVerify(t *testing.T) {
	sqlite, err := NewSQLiteService(filepath.Join(t.TempDir(), "otp.db"), 5*time.Minute)
	if err != nil {
		t.Fatalf("NewSQLiteService() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	services := map[string]Service{
		"inmemory": NewInMemoryService(5 * time.Minute),
		"sqlite":   sqlite,
	}

	for name, svc := range services {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			code, err := svc.Issue(ctx, "254700000001")
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if !codePattern.MatchString(code) {
				t.Fatalf("code %q is not four digits", code)
			}

			ok, err := svc.Verify(ctx, "254700000001", "0000")
			if err != nil {
				t.Fatalf("Verify(wrong) error = %v", err)
			}
			if ok {
				t.Fatal("wrong code verified")
			}

			ok, err = svc.Verify(ctx, "254700000001", code)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if !ok {
				t.Fatal("issued code did not verify")
			}

			// A verified code is consumed.
			ok, err = svc.Verify(ctx, "254700000001", code)
			if err != nil {
				t.Fatalf("Verify(replay) error = %v", err)
			}
			if ok {
				t.Fatal("consumed code verified again")
			}
		})
	}
}

func TestVerifyRejectsExpiredCode(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	inmem := NewInMemoryService(5 * time.Minute)
	inmem.now = func() time.Time { return base }

	sqlite, err := NewSQLiteService(filepath.Join(t.TempDir(), "otp.db"), 5*time.Minute)
	if err != nil {
		t.Fatalf("NewSQLiteService() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	sqlite.now = func() time.Time { return base }

	ctx := context.Background()
	codes := map[string]string{}
	services := map[string]Service{"inmemory": inmem, "sqlite": sqlite}

	for name, svc := range services {
		code, err := svc.Issue(ctx, "254700000002")
		if err != nil {
			t.Fatalf("%s: Issue() error = %v", name, err)
		}
		codes[name] = code
	}

	// Advance past the TTL.
	later := base.Add(5*time.Minute + time.Second)
	inmem.now = func() time.Time { return later }
	sqlite.now = func() time.Time { return later }

	for name, svc := range services {
		ok, err := svc.Verify(ctx, "254700000002", codes[name])
		if err != nil {
			t.Fatalf("%s: Verify() error = %v", name, err)
		}
		if ok {
			t.Fatalf("%s: expired code verified", name)
		}
	}
}

func TestVerifyIsScopedToPhone(t *testing.T) {
	svc := NewInMemoryService(5 * time.Minute)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "254700000003")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	ok, err := svc.Verify(ctx, "254700000099", code)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Fatal("code verified for a different phone")
	}
}
