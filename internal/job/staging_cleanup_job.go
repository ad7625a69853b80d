package job

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/enexview/internal/service"
)

// StagingCleanupJob removes bundle staging directories that outlived their
// request, e.g. after a crash mid-stream.
type StagingCleanupJob struct {
	dir    string
	maxAge time.Duration
}

func NewStagingCleanupJob(maxAge time.Duration) *StagingCleanupJob {
	return &StagingCleanupJob{dir: os.TempDir(), maxAge: maxAge}
}

func (j *StagingCleanupJob) Name() string {
	return "staging_cleanup"
}

func (j *StagingCleanupJob) Run(ctx context.Context) error {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), service.BundleStagingPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		target := filepath.Join(j.dir, entry.Name())
		if err := os.RemoveAll(target); err != nil {
			logutil.GetLogger(ctx).Warn("remove stale staging dir failed",
				zap.String("dir", target), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("stale staging dirs removed", zap.Int("count", removed))
	}
	return nil
}
