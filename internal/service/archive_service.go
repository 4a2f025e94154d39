package service

import (
	"context"
	"fmt"
	"time"

	"BPOrganizer.api/internal/models"
	"BPOrganizer.api/internal/repository"
	"go.uber.org/zap"
)

// ArchiveService keeps a history of extracted readings.
type ArchiveService struct {
	repo   repository.ReadingRepository
	bucket string
	logger *zap.Logger
}

// NewArchiveService creates a new ArchiveService writing to bucket.
func NewArchiveService(repo repository.ReadingRepository, bucket string, logger *zap.Logger) *ArchiveService {
	return &ArchiveService{
		repo:   repo,
		bucket: bucket,
		logger: logger,
	}
}

// Archive saves readings under uploadID, creating the bucket if needed.
func (s *ArchiveService) Archive(ctx context.Context, uploadID string, readings []models.Reading, at time.Time) error {
	if uploadID == "" {
		return fmt.Errorf("upload id is required")
	}
	if len(readings) == 0 {
		return nil
	}

	exists, err := s.repo.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket '%s': %w", s.bucket, err)
	}
	if !exists {
		s.logger.Info("bucket does not exist, creating it", zap.String("bucket", s.bucket))
		if err := s.repo.CreateBucket(ctx, s.bucket); err != nil {
			return fmt.Errorf("error creating bucket '%s': %w", s.bucket, err)
		}
	}

	return s.repo.WriteReadings(ctx, s.bucket, uploadID, readings, at)
}

// History returns archived readings matching req.
func (s *ArchiveService) History(ctx context.Context, req models.HistoryRequest) ([]models.ArchivedReading, error) {
	if req.TimeRangeStart == "" {
		req.TimeRangeStart = "0"
	}
	data, err := s.repo.QueryReadings(ctx, s.bucket, req)
	if err != nil {
		return nil, fmt.Errorf("error querying readings: %w", err)
	}
	return data, nil
}
