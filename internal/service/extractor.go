package service

import (
	"context"
	"strings"
	"time"

	"BPOrganizer.api/internal/models"
)

// Upload is an image submitted for processing.
type Upload struct {
	ID          string
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// IsImage reports whether contentType names an image. Only the prefix is
// checked; size and content are not validated.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// Transport moves an upload to where it will be processed.
type Transport interface {
	Transfer(ctx context.Context, up Upload) error
}

// Extractor turns an uploaded image into a summary of readings.
type Extractor interface {
	Extract(ctx context.Context, up Upload) (models.Summary, error)
}

// SimulatedTransport stands in for the network transfer with a fixed delay.
type SimulatedTransport struct {
	Delay time.Duration
}

func (t SimulatedTransport) Transfer(ctx context.Context, _ Upload) error {
	return sleep(ctx, t.Delay)
}

// SimulatedExtractor waits a fixed delay and returns the sample readings,
// whatever the image holds.
type SimulatedExtractor struct {
	Delay time.Duration
}

func (e SimulatedExtractor) Extract(ctx context.Context, _ Upload) (models.Summary, error) {
	if err := sleep(ctx, e.Delay); err != nil {
		return models.Summary{}, err
	}
	return Summarize(SampleReadings())
}

// SampleReadings is the fixed dataset served by SimulatedExtractor.
func SampleReadings() []models.Reading {
	return []models.Reading{
		{Systolic: 122, Diastolic: 81, Pulse: models.IntPtr(72), Date: "2023-04-01", Time: "08:30 AM"},
		{Systolic: 125, Diastolic: 82, Pulse: models.IntPtr(74), Date: "2023-04-02", Time: "08:45 AM"},
		{Systolic: 118, Diastolic: 79, Pulse: models.IntPtr(70), Date: "2023-04-03", Time: "09:00 AM"},
		{Systolic: 130, Diastolic: 85, Pulse: models.IntPtr(76), Date: "2023-04-04", Time: "08:15 AM"},
		{Systolic: 124, Diastolic: 83, Pulse: models.IntPtr(73), Date: "2023-04-05", Time: "08:30 AM"},
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
