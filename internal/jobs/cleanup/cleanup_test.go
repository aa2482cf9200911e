package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunRemovesOnlyStalePrefixedFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "staged_old.mp4")
	fresh := filepath.Join(dir, "staged_new.mp4")
	foreign := filepath.Join(dir, "unrelated.txt")
	for _, path := range []string{stale, fresh, foreign} {
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(foreign, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	job := NewStagingSweeper(dir, "staged_", 6*time.Hour, zap.NewNop())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run sweep: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale staged file should be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("fresh staged file should survive")
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Fatal("files without the staging prefix must never be touched")
	}
}

func TestRunFailsOnMissingDir(t *testing.T) {
	job := NewStagingSweeper(filepath.Join(t.TempDir(), "missing"), "staged_", time.Hour, zap.NewNop())
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing staging dir")
	}
}
