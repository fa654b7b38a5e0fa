package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCopySourcesMirrorsFilesAndDirs(t *testing.T) {
	work := t.TempDir()
	backupDir := filepath.Join(work, "backup")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("mkdir backup: %v", err)
	}

	dbFile := filepath.Join(work, "data.db")
	if err := os.WriteFile(dbFile, []byte("db contents"), 0o644); err != nil {
		t.Fatalf("write db file: %v", err)
	}

	sessionDir := filepath.Join(work, "session")
	if err := os.MkdirAll(filepath.Join(sessionDir, "keys"), 0o755); err != nil {
		t.Fatalf("mkdir session: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sessionDir, "keys", "creds.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write creds: %v", err)
	}

	r := NewRunner(backupDir, "", time.Minute, []string{dbFile, sessionDir, filepath.Join(work, "missing")})
	if err := r.copySources(); err != nil {
		t.Fatalf("copySources() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(backupDir, "data.db"))
	if err != nil || string(got) != "db contents" {
		t.Fatalf("copied db = %q, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(backupDir, "session", "keys", "creds.json")); err != nil {
		t.Fatalf("copied session tree missing: %v", err)
	}
}

func TestCopySourcesFailsWithoutBackupDir(t *testing.T) {
	r := NewRunner(filepath.Join(t.TempDir(), "absent"), "", time.Minute, nil)
	if err := r.copySources(); err == nil {
		t.Fatal("expected error for missing backup dir")
	}
}

func TestInitRequiresRemoteForFreshClone(t *testing.T) {
	r := NewRunner(filepath.Join(t.TempDir(), "backup"), "", time.Minute, nil)
	if err := r.Init(context.Background()); err == nil {
		t.Fatal("expected error when no clone and no remote")
	}
}
