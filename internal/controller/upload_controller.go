package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"BPOrganizer.api/internal/export"
	"BPOrganizer.api/internal/models"
	"BPOrganizer.api/internal/repository"
	"BPOrganizer.api/internal/service"
	"BPOrganizer.api/internal/utils"
	"go.uber.org/zap"
)

const uploadField = "file"

// UploadController handles HTTP requests for uploads and their results.
type UploadController struct {
	service        *service.UploadService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewUploadController creates a new UploadController.
func NewUploadController(service *service.UploadService, maxUploadBytes int64, logger *zap.Logger) *UploadController {
	return &UploadController{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HandleUpload accepts a multipart image and starts processing it.
func (c *UploadController) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadBytes)
	if err := r.ParseMultipartForm(c.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || r.ContentLength > c.maxUploadBytes {
			c.fail(w, models.NewAPIError(models.ErrorCodePayloadTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", c.maxUploadBytes), nil, http.StatusRequestEntityTooLarge))
			return
		}
		c.fail(w, models.NewAPIError(models.ErrorCodeBadRequest, fmt.Sprintf("error parsing upload: %v", err), nil, http.StatusBadRequest))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		c.fail(w, models.NewAPIError(models.ErrorCodeMissingParameter, "Please select a file first", nil, http.StatusBadRequest))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.fail(w, models.NewAPIError(models.ErrorCodeBadRequest, fmt.Sprintf("error reading upload: %v", err), nil, http.StatusBadRequest))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	view, err := c.service.Submit(r.Context(), service.Upload{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Data:        data,
	})
	switch {
	case errors.Is(err, service.ErrUnsupportedMediaType):
		c.fail(w, models.NewAPIError(models.ErrorCodeUnsupportedMediaType, "Please upload an image file",
			map[string]string{"contentType": contentType}, http.StatusUnsupportedMediaType))
		return
	case errors.Is(err, service.ErrUploadInProgress):
		c.fail(w, models.NewAPIError(models.ErrorCodeUploadInProgress, "An upload is already being processed", view, http.StatusConflict))
		return
	case err != nil:
		c.fail(w, models.NewAPIError(models.ErrorCodeInternalServerError, "Failed to upload file", nil, http.StatusInternalServerError))
		return
	}

	c.logger.Info("upload accepted",
		zap.String("upload_id", view.UploadID),
		zap.String("file_name", view.FileName),
		zap.Int64("size", view.FileSize),
		zap.String("content_type", contentType))
	utils.RespondWithJSON(w, c.logger, http.StatusAccepted, view)
}

// HandleStatus returns the current upload status.
func (c *UploadController) HandleStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, c.logger, http.StatusOK, c.service.Status())
}

// HandleSummary returns the summary of the last successful upload.
func (c *UploadController) HandleSummary(w http.ResponseWriter, r *http.Request) {
	view, ok := c.summary(w)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, c.logger, http.StatusOK, view)
}

// HandleExportCSV downloads the current readings as CSV.
func (c *UploadController) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	view, ok := c.summary(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", export.CSVContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFileName))
	if err := export.WriteCSV(w, view.Readings); err != nil {
		c.logger.Warn("failed to write CSV export", zap.Error(err))
	}
}

// HandleExportXLSX downloads the current readings as a workbook.
func (c *UploadController) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	view, ok := c.summary(w)
	if !ok {
		return
	}
	data, err := export.BuildXLSX(view)
	if err != nil {
		c.fail(w, models.NewAPIError(models.ErrorCodeInternalServerError, fmt.Sprintf("error building workbook: %v", err), nil, http.StatusInternalServerError))
		return
	}
	w.Header().Set("Content-Type", export.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.XLSXFileName))
	if _, err := w.Write(data); err != nil {
		c.logger.Warn("failed to write XLSX export", zap.Error(err))
	}
}

// HandleCategory classifies ?systolic=&diastolic= with the configured classifier.
func (c *UploadController) HandleCategory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	values := make(map[string]int, 2)
	for _, name := range []string{"systolic", "diastolic"} {
		raw := query.Get(name)
		if raw == "" {
			c.fail(w, models.NewAPIError(models.ErrorCodeMissingParameter, name+" is required", nil, http.StatusBadRequest))
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.fail(w, models.NewAPIError(models.ErrorCodeInvalidFormat, name+" must be an integer", nil, http.StatusBadRequest))
			return
		}
		values[name] = v
	}

	utils.RespondWithJSON(w, c.logger, http.StatusOK, map[string]any{
		"systolic":  values["systolic"],
		"diastolic": values["diastolic"],
		"category":  c.service.Classify(values["systolic"], values["diastolic"]),
	})
}

// HandleHistory returns archived readings.
func (c *UploadController) HandleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := models.HistoryRequest{
		TimeRangeStart: query.Get("time_range_start"),
		TimeRangeStop:  query.Get("time_range_stop"),
		UploadID:       query.Get("upload_id"),
	}

	readings, err := c.service.History(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrArchiveDisabled):
		c.fail(w, models.NewAPIError(models.ErrorCodeServiceUnavailable, "reading history is not enabled", nil, http.StatusServiceUnavailable))
		return
	case errors.Is(err, repository.ErrInvalidTimeBound):
		c.fail(w, models.NewAPIError(models.ErrorCodeInvalidFormat, err.Error(), nil, http.StatusBadRequest))
		return
	case err != nil:
		c.fail(w, models.NewAPIError(models.ErrorCodeInternalServerError, fmt.Sprintf("Error fetching history: %v", err), nil, http.StatusInternalServerError))
		return
	}
	if readings == nil {
		readings = []models.ArchivedReading{}
	}
	utils.RespondWithJSON(w, c.logger, http.StatusOK, readings)
}

func (c *UploadController) summary(w http.ResponseWriter) (models.SummaryView, bool) {
	view, err := c.service.Summary()
	if err != nil {
		c.fail(w, models.NewAPIError(models.ErrorCodeResourceNotFound, "No processed readings yet", nil, http.StatusNotFound))
		return models.SummaryView{}, false
	}
	return view, true
}

func (c *UploadController) fail(w http.ResponseWriter, apiErr models.APIError) {
	if apiErr.StatusCode >= http.StatusInternalServerError {
		c.logger.Error("request failed", zap.String("code", string(apiErr.Code)), zap.String("message", apiErr.Message))
	} else {
		c.logger.Debug("request rejected", zap.String("code", string(apiErr.Code)), zap.String("message", apiErr.Message))
	}
	utils.RespondWithError(w, c.logger, apiErr)
}
