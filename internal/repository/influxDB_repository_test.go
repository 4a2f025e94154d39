package repository

import (
	"strings"
	"testing"
	"time"

	"BPOrganizer.api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHistoryQuery(t *testing.T) {
	q, err := buildHistoryQuery("bp_readings", models.HistoryRequest{
		TimeRangeStart: "-7d",
		TimeRangeStop:  "2023-04-06T00:00:00Z",
		UploadID:       "u-1",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(q, `from(bucket: "bp_readings")`))
	assert.Contains(t, q, `|> range(start: -7d, stop: 2023-04-06T00:00:00Z)`)
	assert.Contains(t, q, `r["_measurement"] == "blood_pressure"`)
	assert.Contains(t, q, `r["upload_id"] == "u-1"`)
	assert.Contains(t, q, `|> pivot(`)
}

func TestBuildHistoryQuery_NoStopNoUpload(t *testing.T) {
	q, err := buildHistoryQuery("bp_readings", models.HistoryRequest{TimeRangeStart: "0"})
	require.NoError(t, err)

	assert.Contains(t, q, `|> range(start: 0)`)
	assert.NotContains(t, q, "upload_id")
}

func TestBuildHistoryQuery_RejectsBadBounds(t *testing.T) {
	for _, bound := range []string{"", "yesterday", "-7d) |> drop()", "2023-04-06"} {
		_, err := buildHistoryQuery("b", models.HistoryRequest{TimeRangeStart: bound})
		assert.ErrorIs(t, err, ErrInvalidTimeBound, bound)
	}
	_, err := buildHistoryQuery("b", models.HistoryRequest{TimeRangeStart: "-1h", TimeRangeStop: "now"})
	assert.Error(t, err)
}

func TestBuildHistoryQuery_QuotesUploadID(t *testing.T) {
	q, err := buildHistoryQuery("b", models.HistoryRequest{TimeRangeStart: "0", UploadID: `x" or true or "`})
	require.NoError(t, err)
	assert.Contains(t, q, `r["upload_id"] == "x\" or true or \""`)
}

func TestReadingPoint(t *testing.T) {
	at := time.Date(2023, 4, 1, 8, 30, 0, 0, time.UTC)

	p := readingPoint("u-1", 3, models.Reading{Systolic: 122, Diastolic: 81, Pulse: models.IntPtr(72), Date: "2023-04-01"}, at)
	assert.Equal(t, "blood_pressure", p.Name())
	assert.True(t, at.Equal(p.Time()))

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"upload_id": "u-1", "seq": "3"}, tags)

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, int64(122), fields["systolic"])
	assert.Equal(t, int64(81), fields["diastolic"])
	assert.Equal(t, int64(72), fields["pulse"])
	assert.Equal(t, "2023-04-01", fields["date"])
	assert.NotContains(t, fields, "time")
}

func TestToInt(t *testing.T) {
	n, ok := toInt(int64(5))
	assert.True(t, ok)
	assert.Equal(t, 5, n)
	n, ok = toInt(float64(7))
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	_, ok = toInt(nil)
	assert.False(t, ok)
}
