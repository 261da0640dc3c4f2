package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/techassets/backend/internal/model"
)

// Janitor removes staged files once they are uploaded or abandoned.
type Janitor struct{}

// NewJanitor は Janitor を生成する
func NewJanitor() *Janitor { return &Janitor{} }

// Remove deletes one staged file. A file that is already gone is not an error.
func (j *Janitor) Remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("staging: remove %s: %w", path, err)
	}
	slog.DebugContext(ctx, "staged file removed", "path", path)
	return nil
}

// Sweep removes every file of files that is still on disk and reports how
// many were removed. Failures are logged and skipped.
func (j *Janitor) Sweep(ctx context.Context, files []*model.UploadedFile) int {
	removed := 0
	for _, f := range files {
		if f == nil || f.TempPath == "" {
			continue
		}
		if _, err := os.Stat(f.TempPath); os.IsNotExist(err) {
			continue
		}
		if err := j.Remove(ctx, f.TempPath); err != nil {
			slog.WarnContext(ctx, "staged file sweep failed", "path", f.TempPath, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// SweepStale removes regular files in dir last modified before now-maxAge.
// It catches files left behind by a crashed request.
func (j *Janitor) SweepStale(ctx context.Context, dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("staging: read dir: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := j.Remove(ctx, filepath.Join(dir, e.Name())); err != nil {
			slog.WarnContext(ctx, "stale staged file removal failed", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// Run calls SweepStale every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, dir string, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.SweepStale(ctx, dir, maxAge)
			if err != nil {
				slog.WarnContext(ctx, "stale sweep failed", "dir", dir, "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "stale staged files removed", "count", n, "dir", dir)
			}
		}
	}
}
