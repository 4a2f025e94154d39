package models

import "time"

// Reading is one blood-pressure measurement. Date and Time are free text
// as printed by the monitor; empty means the monitor did not show one.
type Reading struct {
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Pulse     *int   `json:"pulse,omitempty"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
}

// Summary is the set of readings extracted from one upload together with
// their averages. It is replaced as a whole when an upload completes.
type Summary struct {
	Readings         []Reading `json:"readings"`
	AverageSystolic  int       `json:"averageSystolic"`
	AverageDiastolic int       `json:"averageDiastolic"`
	AveragePulse     *int      `json:"averagePulse,omitempty"`
}

// SummaryView is what the API returns for the current summary.
type SummaryView struct {
	Summary
	UploadID     string    `json:"uploadId"`
	ReadingCount int       `json:"readingCount"`
	Category     Category  `json:"category"`
	CompletedAt  time.Time `json:"completedAt"`
}

// ArchivedReading is a reading read back from the history archive.
type ArchivedReading struct {
	Reading
	UploadID   string    `json:"uploadId"`
	ArchivedAt time.Time `json:"archivedAt"`
}

// HistoryRequest selects archived readings.
type HistoryRequest struct {
	TimeRangeStart string `json:"timeRangeStart"`
	TimeRangeStop  string `json:"timeRangeStop"`
	UploadID       string `json:"uploadId"`
}

// IntPtr returns a pointer to v, for optional fields such as Pulse.
func IntPtr(v int) *int {
	return &v
}
