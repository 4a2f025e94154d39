package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"BPOrganizer.api/internal/models"
	"BPOrganizer.api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadService owns the process-wide upload status and the current
// summary. One run at a time moves the status through
// uploading -> processing -> success|error.
type UploadService struct {
	transport Transport
	extractor Extractor
	classify  Classifier
	archive   *ArchiveService
	cache     repository.SnapshotCache
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	status  models.StatusView
	summary *models.SummaryView

	runs sync.WaitGroup
}

// Option configures an UploadService.
type Option func(*UploadService)

// WithClassifier replaces the default Classify.
func WithClassifier(c Classifier) Option {
	return func(s *UploadService) { s.classify = c }
}

// WithArchive archives the readings of every successful run.
func WithArchive(a *ArchiveService) Option {
	return func(s *UploadService) { s.archive = a }
}

// WithSnapshotCache publishes every status and summary change to cache.
func WithSnapshotCache(c repository.SnapshotCache) Option {
	return func(s *UploadService) { s.cache = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *UploadService) { s.now = now }
}

// WithIDGenerator overrides the upload id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *UploadService) { s.newID = gen }
}

// NewUploadService creates an UploadService in the idle state.
func NewUploadService(transport Transport, extractor Extractor, logger *zap.Logger, opts ...Option) *UploadService {
	s := &UploadService{
		transport: transport,
		extractor: extractor,
		classify:  Classify,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.status = models.NewStatusView(models.StatusIdle, s.now())
	return s
}

// Submit validates and claims the upload, then processes it in the
// background. The returned view is the uploading status. A rejected
// upload leaves the status unchanged.
func (s *UploadService) Submit(ctx context.Context, up Upload) (models.StatusView, error) {
	up, view, err := s.begin(ctx, up)
	if err != nil {
		return view, err
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		// the run outlives the request that started it
		_ = s.process(context.WithoutCancel(ctx), up)
	}()
	return view, nil
}

// Process is Submit awaited: it returns once the run reaches success or error.
func (s *UploadService) Process(ctx context.Context, up Upload) (models.StatusView, error) {
	up, view, err := s.begin(ctx, up)
	if err != nil {
		return view, err
	}
	if err := s.process(ctx, up); err != nil {
		return s.Status(), err
	}
	return s.Status(), nil
}

// Wait blocks until every background run has finished.
func (s *UploadService) Wait() {
	s.runs.Wait()
}

// Status returns the current status.
func (s *UploadService) Status() models.StatusView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Summary returns the summary of the last successful run.
func (s *UploadService) Summary() (models.SummaryView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return models.SummaryView{}, ErrNoSummary
	}
	view := *s.summary
	view.Readings = append([]models.Reading(nil), view.Readings...)
	return view, nil
}

// Classify applies the configured classifier.
func (s *UploadService) Classify(sys, dia int) models.Category {
	return s.classify(sys, dia)
}

// History returns archived readings.
func (s *UploadService) History(ctx context.Context, req models.HistoryRequest) ([]models.ArchivedReading, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.History(ctx, req)
}

// Restore loads the last snapshot from the cache. A run that was in flight
// when the snapshot was taken cannot resume and is restored as failed.
func (s *UploadService) Restore(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	status, err := s.cache.LoadStatus(ctx)
	if err != nil && !errors.Is(err, repository.ErrSnapshotMiss) {
		return fmt.Errorf("load status snapshot: %w", err)
	}
	summary, sumErr := s.cache.LoadSummary(ctx)
	if sumErr != nil && !errors.Is(sumErr, repository.ErrSnapshotMiss) {
		return fmt.Errorf("load summary snapshot: %w", sumErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		if status.Status.InFlight() {
			interrupted := models.NewStatusView(models.StatusError, s.now())
			interrupted.Message = processingFailed
			interrupted.UploadID = status.UploadID
			interrupted.FileName = status.FileName
			interrupted.FileSize = status.FileSize
			status = interrupted
		}
		s.status = status
	}
	if sumErr == nil {
		s.summary = &summary
	}
	s.logger.Info("restored snapshot",
		zap.String("status", string(s.status.Status)),
		zap.Bool("has_summary", s.summary != nil))
	return nil
}

func (s *UploadService) begin(ctx context.Context, up Upload) (Upload, models.StatusView, error) {
	if !IsImage(up.ContentType) {
		s.logger.Warn("rejected upload",
			zap.String("file_name", up.FileName),
			zap.String("content_type", up.ContentType))
		return up, s.Status(), fmt.Errorf("%w: %q", ErrUnsupportedMediaType, up.ContentType)
	}
	if up.ID == "" {
		up.ID = s.newID()
	}

	s.mu.Lock()
	if s.status.Status.InFlight() {
		current := s.status
		s.mu.Unlock()
		return up, current, fmt.Errorf("%w: %s", ErrUploadInProgress, current.UploadID)
	}
	view := s.setStatusLocked(up, models.StatusUploading, "")
	s.mu.Unlock()

	s.publishStatus(ctx, view)
	return up, view, nil
}

func (s *UploadService) process(ctx context.Context, up Upload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during processing: %v", r)
		}
		if err != nil {
			s.logger.Error("upload processing failed", zap.String("upload_id", up.ID), zap.Error(err))
			s.transition(ctx, up, models.StatusError, processingFailed)
		}
	}()

	if err := s.transport.Transfer(ctx, up); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	s.transition(ctx, up, models.StatusProcessing, "")

	extracted, err := s.extractor.Extract(ctx, up)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	summary, err := Summarize(extracted.Readings)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	completedAt := s.now()
	view := models.SummaryView{
		Summary:      summary,
		UploadID:     up.ID,
		ReadingCount: len(summary.Readings),
		Category:     s.classify(summary.AverageSystolic, summary.AverageDiastolic),
		CompletedAt:  completedAt,
	}

	s.mu.Lock()
	s.summary = &view
	statusView := s.setStatusLocked(up, models.StatusSuccess, "")
	s.mu.Unlock()

	s.logger.Info("upload processed",
		zap.String("upload_id", up.ID),
		zap.Int("readings", view.ReadingCount),
		zap.Int("avg_systolic", summary.AverageSystolic),
		zap.Int("avg_diastolic", summary.AverageDiastolic),
		zap.String("category", view.Category.Label))

	s.publishStatus(ctx, statusView)
	if s.cache != nil {
		if err := s.cache.SaveSummary(ctx, view); err != nil {
			s.logger.Warn("failed to cache summary", zap.String("upload_id", up.ID), zap.Error(err))
		}
	}
	if s.archive != nil {
		if err := s.archive.Archive(ctx, up.ID, summary.Readings, completedAt); err != nil {
			s.logger.Warn("failed to archive readings", zap.String("upload_id", up.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *UploadService) transition(ctx context.Context, up Upload, status models.Status, message string) {
	s.mu.Lock()
	view := s.setStatusLocked(up, status, message)
	s.mu.Unlock()
	s.publishStatus(ctx, view)
}

func (s *UploadService) setStatusLocked(up Upload, status models.Status, message string) models.StatusView {
	view := models.NewStatusView(status, s.now())
	view.Message = message
	view.UploadID = up.ID
	view.FileName = up.FileName
	view.FileSize = up.Size
	s.status = view
	s.logger.Debug("status changed", zap.String("upload_id", up.ID), zap.String("status", string(status)))
	return view
}

func (s *UploadService) publishStatus(ctx context.Context, view models.StatusView) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveStatus(ctx, view); err != nil {
		s.logger.Warn("failed to cache status", zap.String("upload_id", view.UploadID), zap.Error(err))
	}
}
