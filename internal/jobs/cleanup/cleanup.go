package cleanup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Job sweeps the upload staging directory. The request path removes its own
// staged files, but a crash between staging and orchestration leaves them
// behind; this job is the backstop. Only files carrying the staging prefix
// are touched, the directory may be a shared temp dir.
type Job struct {
	dir       string
	prefix    string
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewStagingSweeper(dir, prefix string, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		dir:       dir,
		prefix:    prefix,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// Start runs a sweep every interval until ctx is cancelled.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("staging sweep failed", zap.Error(err))
			}
		}
	}
}

func (j *Job) Run(_ context.Context) error {
	if j.dir == "" {
		return fmt.Errorf("staging dir is empty")
	}

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return fmt.Errorf("read staging dir: %w", err)
	}

	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), j.prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			j.logger.Warn("remove stale staged file failed",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("staging sweep completed", zap.Int("removed", removed))
	}

	return nil
}
