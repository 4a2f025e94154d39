package models

import "time"

// Status is the phase of the upload/processing lifecycle.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// InFlight reports whether an upload run owns the status.
func (s Status) InFlight() bool {
	return s == StatusUploading || s == StatusProcessing
}

// Title and description shown by the status panel for each phase.
var statusText = map[Status][2]string{
	StatusUploading:  {"Uploading Image", "Your image is being uploaded to our servers..."},
	StatusProcessing: {"Processing Your Blood Pressure Data", "Our AI is analyzing and extracting blood pressure readings from your image..."},
	StatusSuccess:    {"Processing Complete", "Your blood pressure data has been successfully processed."},
	StatusError:      {"Processing Failed", "We encountered an error while processing your image. Please try again with a clearer image."},
}

// Title returns the panel heading for s, empty for idle.
func (s Status) Title() string {
	return statusText[s][0]
}

// Description returns the panel text for s, empty for idle.
func (s Status) Description() string {
	return statusText[s][1]
}

// StatusView is the current status as served to clients.
type StatusView struct {
	Status      Status    `json:"status"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Message     string    `json:"message,omitempty"`
	UploadID    string    `json:"uploadId,omitempty"`
	FileName    string    `json:"fileName,omitempty"`
	FileSize    int64     `json:"fileSize,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewStatusView fills in the panel text for status.
func NewStatusView(status Status, at time.Time) StatusView {
	return StatusView{
		Status:      status,
		Title:       status.Title(),
		Description: status.Description(),
		UpdatedAt:   at,
	}
}

// Category is a clinical blood-pressure category.
type Category struct {
	Label  string `json:"label"`
	Color  string `json:"color"`
	Advice string `json:"advice,omitempty"`
}
