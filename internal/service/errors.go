package service

import "errors"

var (
	// ErrUnsupportedMediaType is returned for uploads whose MIME type is not image/*.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrUploadInProgress is returned when a run already owns the status.
	ErrUploadInProgress = errors.New("upload already in progress")
	// ErrNoReadings is returned when summarizing an empty reading set.
	ErrNoReadings = errors.New("no readings to summarize")
	// ErrNoSummary is returned before the first successful run.
	ErrNoSummary = errors.New("no summary available")
	// ErrArchiveDisabled is returned by history queries when no archive is configured.
	ErrArchiveDisabled = errors.New("reading archive is not configured")
)

// processingFailed is the message surfaced with the error status.
const processingFailed = "processing failed"
