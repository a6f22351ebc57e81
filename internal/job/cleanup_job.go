package job

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"import-wizard-api/internal/client"
	"import-wizard-api/internal/repository"
)

// CleanupJob removes expired export artifacts: the local file, the mirrored
// S3 object if any, and finally the database record
type CleanupJob struct {
	exportRepo repository.ExportRecordRepository
	s3Client   client.S3ClientInterface // nil이면 로컬 파일만 정리
	exportDir  string
	logger     *zap.Logger
}

// NewCleanupJob creates a new CleanupJob instance
func NewCleanupJob(
	exportRepo repository.ExportRecordRepository,
	s3Client client.S3ClientInterface,
	exportDir string,
	logger *zap.Logger,
) *CleanupJob {
	return &CleanupJob{
		exportRepo: exportRepo,
		s3Client:   s3Client,
		exportDir:  exportDir,
		logger:     logger,
	}
}

// Run executes the cleanup job
func (j *CleanupJob) Run() {
	ctx := context.Background()

	expired, err := j.exportRepo.FindExpired(ctx)
	if err != nil {
		j.logger.Error("Failed to find expired exports", zap.Error(err))
		return
	}
	if len(expired) == 0 {
		return
	}

	j.logger.Info("Found expired exports", zap.Int("count", len(expired)))

	var deletable []uuid.UUID
	failCount := 0

	for _, record := range expired {
		if record.StorageKey != "" && j.s3Client != nil {
			if err := j.s3Client.DeleteFile(ctx, record.StorageKey); err != nil {
				j.logger.Error("Failed to delete export from S3",
					zap.String("record_id", record.ID.String()),
					zap.String("storage_key", record.StorageKey),
					zap.Error(err),
				)
				failCount++
				continue
			}
		}

		localPath := filepath.Join(j.exportDir, record.Filename)
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			j.logger.Warn("Failed to delete local export file",
				zap.String("path", localPath),
				zap.Error(err),
			)
		}

		deletable = append(deletable, record.ID)
	}

	if len(deletable) > 0 {
		if err := j.exportRepo.DeleteBatch(ctx, deletable); err != nil {
			j.logger.Error("Failed to delete export records",
				zap.Int("count", len(deletable)),
				zap.Error(err),
			)
			return
		}
	}

	j.logger.Info("Export cleanup completed",
		zap.Int("total_expired", len(expired)),
		zap.Int("deleted", len(deletable)),
		zap.Int("failed", failCount),
	)
}
