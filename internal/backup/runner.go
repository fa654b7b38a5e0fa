// Package backup mirrors the session database files into a git
// repository on a fixed cadence.
package backup

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/frost-bit-star/stackverify-bot/internal/reliability"
)

const (
	commitMessage = "Auto backup session & db"
	pushAttempts  = 3
)

// Runner copies a set of source paths into Dir and pushes the result
// to Remote every Interval.
type Runner struct {
	Dir      string
	Remote   string
	Interval time.Duration
	Sources  []string
}

func NewRunner(dir, remote string, interval time.Duration, sources []string) *Runner {
	return &Runner{Dir: dir, Remote: remote, Interval: interval, Sources: sources}
}

// Init brings the backup clone up to date, cloning it when absent.
func (r *Runner) Init(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(r.Dir, ".git")); err == nil {
		if out, err := r.git(ctx, "-C", r.Dir, "pull"); err != nil {
			return fmt.Errorf("pull backup repo: %w: %s", err, out)
		}
		return nil
	}
	if strings.TrimSpace(r.Remote) == "" {
		return fmt.Errorf("backup dir %s has no clone and no remote is configured", r.Dir)
	}
	if out, err := r.git(ctx, "clone", r.Remote, r.Dir); err != nil {
		return fmt.Errorf("clone backup repo: %w: %s", err, out)
	}
	return nil
}

// Run syncs on a fixed ticker until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sync(ctx); err != nil {
				log.Printf("backup: sync: %v", err)
			}
		}
	}
}

// Sync copies the sources into the clone, commits and pushes.
func (r *Runner) Sync(ctx context.Context) error {
	if err := r.copySources(); err != nil {
		return err
	}

	if out, err := r.git(ctx, "-C", r.Dir, "add", "."); err != nil {
		return fmt.Errorf("git add: %w: %s", err, out)
	}
	out, err := r.git(ctx, "-C", r.Dir, "commit", "-m", commitMessage)
	if err != nil {
		if strings.Contains(out, "nothing to commit") {
			return nil
		}
		return fmt.Errorf("git commit: %w: %s", err, out)
	}

	for attempt := 0; attempt < pushAttempts; attempt++ {
		out, err = r.git(ctx, "-C", r.Dir, "push")
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reliability.ExponentialBackoff(attempt, time.Second, 30*time.Second)):
		}
	}
	return fmt.Errorf("git push: %w: %s", err, out)
}

func (r *Runner) copySources() error {
	if _, err := os.Stat(r.Dir); err != nil {
		return fmt.Errorf("backup dir: %w", err)
	}
	for _, src := range r.Sources {
		info, err := os.Stat(src)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("stat %s: %w", src, err)
		}

		dst := filepath.Join(r.Dir, filepath.Base(src))
		if info.IsDir() {
			err = copyDir(src, dst)
		} else {
			err = copyFile(src, dst)
		}
		if err != nil {
			return fmt.Errorf("copy %s: %w", src, err)
		}
	}
	return nil
}

func (r *Runner) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
