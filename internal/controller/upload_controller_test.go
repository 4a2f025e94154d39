package controller

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"BPOrganizer.api/internal/models"
	"BPOrganizer.api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// blockingExtractor holds a run in processing until release is closed.
type blockingExtractor struct {
	entered chan struct{}
	release chan struct{}
}

func (e *blockingExtractor) Extract(ctx context.Context, _ service.Upload) (models.Summary, error) {
	close(e.entered)
	<-e.release
	return service.Summarize(service.SampleReadings())
}

func newTestController(t *testing.T, extractor service.Extractor, maxBytes int64) (*UploadController, *service.UploadService) {
	t.Helper()
	if extractor == nil {
		extractor = service.SimulatedExtractor{}
	}
	svc := service.NewUploadService(service.SimulatedTransport{}, extractor, zap.NewNop())
	t.Cleanup(svc.Wait)
	return NewUploadController(svc, maxBytes, zap.NewNop()), svc
}

func multipartRequest(t *testing.T, field, fileName, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func completeUpload(t *testing.T, c *UploadController, svc *service.UploadService) {
	t.Helper()
	w := httptest.NewRecorder()
	c.HandleUpload(w, multipartRequest(t, uploadField, "monitor.png", "image/png", []byte("png")))
	require.Equal(t, http.StatusAccepted, w.Code)
	svc.Wait()
	require.Equal(t, models.StatusSuccess, svc.Status().Status)
}

func TestHandleUpload_Accepted(t *testing.T) {
	c, svc := newTestController(t, nil, 1<<20)

	w := httptest.NewRecorder()
	c.HandleUpload(w, multipartRequest(t, uploadField, "monitor.jpg", "image/jpeg", []byte("jpeg bytes")))

	require.Equal(t, http.StatusAccepted, w.Code)
	var view models.StatusView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, models.StatusUploading, view.Status)
	assert.Equal(t, "monitor.jpg", view.FileName)
	assert.EqualValues(t, 10, view.FileSize)
	assert.NotEmpty(t, view.UploadID)

	svc.Wait()
	assert.Equal(t, models.StatusSuccess, svc.Status().Status)
}

func TestHandleUpload_RejectsNonImage(t *testing.T) {
	c, svc := newTestController(t, nil, 1<<20)

	w := httptest.NewRecorder()
	c.HandleUpload(w, multipartRequest(t, uploadField, "readings.pdf", "application/pdf", []byte("%PDF-1.4")))

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, models.ErrorCodeUnsupportedMediaType, decodeAPIError(t, w).Code)
	assert.Equal(t, models.StatusIdle, svc.Status().Status)
}

func TestHandleUpload_SniffsMissingContentType(t *testing.T) {
	c, _ := newTestController(t, nil, 1<<20)
	pngMagic := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	w := httptest.NewRecorder()
	c.HandleUpload(w, multipartRequest(t, uploadField, "monitor", "", pngMagic))
	assert.Equal(t, http.StatusAccepted, w.Code)

	c2, _ := newTestController(t, nil, 1<<20)
	w = httptest.NewRecorder()
	c2.HandleUpload(w, multipartRequest(t, uploadField, "notes", "", []byte("plain text notes")))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestHandleUpload_MissingFile(t *testing.T) {
	c, svc := newTestController(t, nil, 1<<20)

	w := httptest.NewRecorder()
	c.HandleUpload(w, multipartRequest(t, "attachment", "monitor.png", "image/png", []byte("png")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrorCodeMissingParameter, decodeAPIError(t, w).Code)
	assert.Equal(t, models.StatusIdle, svc.Status().Status)
}

func TestHandleUpload_TooLarge(t *testing.T) {
	c, svc := newTestController(t, nil, 64)

	w := httptest.NewRecorder()
	c.HandleUpload(w, multipartRequest(t, uploadField, "monitor.png", "image/png", bytes.Repeat([]byte("x"), 4096)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, models.ErrorCodePayloadTooLarge, decodeAPIError(t, w).Code)
	assert.Equal(t, models.StatusIdle, svc.Status().Status)
}

func TestHandleUpload_ConflictWhileInFlight(t *testing.T) {
	extractor := &blockingExtractor{entered: make(chan struct{}), release: make(chan struct{})}
	c, svc := newTestController(t, extractor, 1<<20)

	w := httptest.NewRecorder()
	c.HandleUpload(w, multipartRequest(t, uploadField, "first.png", "image/png", []byte("png")))
	require.Equal(t, http.StatusAccepted, w.Code)
	<-extractor.entered

	w = httptest.NewRecorder()
	c.HandleUpload(w, multipartRequest(t, uploadField, "second.png", "image/png", []byte("png")))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, models.ErrorCodeUploadInProgress, decodeAPIError(t, w).Code)

	status := svc.Status()
	assert.Equal(t, models.StatusProcessing, status.Status)
	assert.Equal(t, "first.png", status.FileName)

	close(extractor.release)
	svc.Wait()
	assert.Equal(t, models.StatusSuccess, svc.Status().Status)
}

func TestHandleStatus_Idle(t *testing.T) {
	c, _ := newTestController(t, nil, 1<<20)

	w := httptest.NewRecorder()
	c.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var view models.StatusView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, models.StatusIdle, view.Status)
	assert.Empty(t, view.Title)
}

func TestHandleSummary(t *testing.T) {
	c, svc := newTestController(t, nil, 1<<20)

	w := httptest.NewRecorder()
	c.HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrorCodeResourceNotFound, decodeAPIError(t, w).Code)

	completeUpload(t, c, svc)

	w = httptest.NewRecorder()
	c.HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var view models.SummaryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 124, view.AverageSystolic)
	assert.Equal(t, 82, view.AverageDiastolic)
	require.NotNil(t, view.AveragePulse)
	assert.Equal(t, 73, *view.AveragePulse)
	assert.Equal(t, 5, view.ReadingCount)
	assert.Equal(t, service.CategoryStage1.Label, view.Category.Label)
}

func TestHandleExportCSV(t *testing.T) {
	c, svc := newTestController(t, nil, 1<<20)

	w := httptest.NewRecorder()
	c.HandleExportCSV(w, httptest.NewRequest(http.MethodGet, "/api/summary/export.csv", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	completeUpload(t, c, svc)

	w = httptest.NewRecorder()
	c.HandleExportCSV(w, httptest.NewRequest(http.MethodGet, "/api/summary/export.csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv;charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "blood_pressure_readings.csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"Date", "Time", "Systolic", "Diastolic", "Pulse"}, records[0])
	assert.Equal(t, []string{"2023-04-01", "08:30 AM", "122", "81", "72"}, records[1])
}

func TestHandleExportXLSX(t *testing.T) {
	c, svc := newTestController(t, nil, 1<<20)
	completeUpload(t, c, svc)

	w := httptest.NewRecorder()
	c.HandleExportXLSX(w, httptest.NewRequest(http.MethodGet, "/api/summary/export.xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Readings")
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

func TestHandleCategory(t *testing.T) {
	c, _ := newTestController(t, nil, 1<<20)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLabel  string
		wantCode   models.ErrorCode
	}{
		{name: "normal", query: "systolic=115&diastolic=75", wantStatus: http.StatusOK, wantLabel: "Normal"},
		{name: "crisis shadowed by stage 2", query: "systolic=190&diastolic=125", wantStatus: http.StatusOK, wantLabel: "Hypertension Stage 2"},
		{name: "missing diastolic", query: "systolic=120", wantStatus: http.StatusBadRequest, wantCode: models.ErrorCodeMissingParameter},
		{name: "not a number", query: "systolic=abc&diastolic=80", wantStatus: http.StatusBadRequest, wantCode: models.ErrorCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c.HandleCategory(w, httptest.NewRequest(http.MethodGet, "/api/categories?"+tt.query, nil))

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, tt.wantCode, decodeAPIError(t, w).Code)
				return
			}
			var body struct {
				Category models.Category `json:"category"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantLabel, body.Category.Label)
		})
	}
}

func TestHandleHistory_ArchiveDisabled(t *testing.T) {
	c, _ := newTestController(t, nil, 1<<20)

	w := httptest.NewRecorder()
	c.HandleHistory(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, models.ErrorCodeServiceUnavailable, decodeAPIError(t, w).Code)
}
