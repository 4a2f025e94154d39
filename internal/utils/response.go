package utils

import (
	"encoding/json"
	"net/http"

	"BPOrganizer.api/internal/models"
	"go.uber.org/zap"
)

// RespondWithError sends a JSON error response using the APIError model.
// It sets the HTTP status code from the APIError and encodes the entire struct.
func RespondWithError(writer http.ResponseWriter, logger *zap.Logger, apiErr models.APIError) {
	RespondWithJSON(writer, logger, apiErr.StatusCode, apiErr)
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(writer http.ResponseWriter, logger *zap.Logger, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}
