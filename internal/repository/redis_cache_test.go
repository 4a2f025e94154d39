package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"BPOrganizer.api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", ErrSnapshotMiss
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func TestSnapshotCache_Miss(t *testing.T) {
	cache := NewRedisSnapshotCache(newFakeKV(), time.Hour)

	_, err := cache.LoadStatus(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotMiss)
	_, err = cache.LoadSummary(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotMiss)
}

func TestSnapshotCache_StatusAndSummary(t *testing.T) {
	kv := newFakeKV()
	cache := NewRedisSnapshotCache(kv, time.Hour)
	ctx := context.Background()
	at := time.Date(2023, 4, 5, 8, 30, 0, 0, time.UTC)

	status := models.NewStatusView(models.StatusSuccess, at)
	status.UploadID = "u-1"
	require.NoError(t, cache.SaveStatus(ctx, status))

	summary := models.SummaryView{
		Summary: models.Summary{
			Readings:         []models.Reading{{Systolic: 122, Diastolic: 81, Pulse: models.IntPtr(72), Date: "2023-04-01"}},
			AverageSystolic:  122,
			AverageDiastolic: 81,
			AveragePulse:     models.IntPtr(72),
		},
		UploadID:     "u-1",
		ReadingCount: 1,
		Category:     models.Category{Label: "Hypertension Stage 1", Color: "orange"},
		CompletedAt:  at,
	}
	require.NoError(t, cache.SaveSummary(ctx, summary))

	assert.Equal(t, time.Hour, kv.ttls[statusKey])
	assert.Contains(t, kv.data[summaryKey], `"averageSystolic":122`)

	gotStatus, err := cache.LoadStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, gotStatus.Status)
	assert.Equal(t, "u-1", gotStatus.UploadID)
	assert.True(t, at.Equal(gotStatus.UpdatedAt))

	gotSummary, err := cache.LoadSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 122, gotSummary.AverageSystolic)
	require.NotNil(t, gotSummary.AveragePulse)
	assert.Equal(t, 72, *gotSummary.AveragePulse)
	require.Len(t, gotSummary.Readings, 1)
	assert.Equal(t, "2023-04-01", gotSummary.Readings[0].Date)
}

func TestSnapshotCache_Errors(t *testing.T) {
	kv := newFakeKV()
	cache := NewRedisSnapshotCache(kv, 0)
	ctx := context.Background()

	kv.data[statusKey] = "{not json"
	_, err := cache.LoadStatus(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSnapshotMiss)

	kv.err = errors.New("connection refused")
	_, err = cache.LoadSummary(ctx)
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, cache.SaveStatus(ctx, models.StatusView{}))
}
