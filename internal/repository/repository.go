package repository

import (
	"context"
	"errors"
	"time"

	"BPOrganizer.api/internal/models"
)

var (
	// ErrSnapshotMiss is returned when no snapshot has been stored yet.
	ErrSnapshotMiss = errors.New("snapshot not found")
	// ErrInvalidTimeBound is returned for history ranges that are neither
	// relative durations nor RFC3339 timestamps.
	ErrInvalidTimeBound = errors.New("invalid time bound")
)

// ReadingRepository stores and queries the reading history.
type ReadingRepository interface {
	WriteReadings(ctx context.Context, bucket, uploadID string, readings []models.Reading, at time.Time) error
	BucketExists(ctx context.Context, name string) (bool, error)
	CreateBucket(ctx context.Context, name string) error
	QueryReadings(ctx context.Context, bucket string, req models.HistoryRequest) ([]models.ArchivedReading, error)
}

// SnapshotCache holds the latest status and summary.
type SnapshotCache interface {
	SaveStatus(ctx context.Context, status models.StatusView) error
	LoadStatus(ctx context.Context) (models.StatusView, error)
	SaveSummary(ctx context.Context, summary models.SummaryView) error
	LoadSummary(ctx context.Context) (models.SummaryView, error)
}
