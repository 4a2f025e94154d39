package routes

import (
	"fmt"
	"net/http"

	"BPOrganizer.api/internal/controller"
	"BPOrganizer.api/internal/models"
	"BPOrganizer.api/internal/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RegisterRoutes registers all application routes. guard, when not nil,
// protects the upload endpoint.
func RegisterRoutes(router *mux.Router, c *controller.UploadController, guard func(http.Handler) http.Handler, logger *zap.Logger) {
	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	var upload http.Handler = http.HandlerFunc(c.HandleUpload)
	if guard != nil {
		upload = guard(upload)
	}
	api.Handle("/uploads", upload).Methods(http.MethodPost)

	api.HandleFunc("/status", c.HandleStatus).Methods(http.MethodGet)
	api.HandleFunc("/summary", c.HandleSummary).Methods(http.MethodGet)
	api.HandleFunc("/summary/export.csv", c.HandleExportCSV).Methods(http.MethodGet)
	api.HandleFunc("/summary/export.xlsx", c.HandleExportXLSX).Methods(http.MethodGet)
	api.HandleFunc("/categories", c.HandleCategory).Methods(http.MethodGet)
	api.HandleFunc("/history", c.HandleHistory).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, logger, models.NewAPIError(models.ErrorCodeMethodNotAllowed, "Method not allowed", nil, http.StatusMethodNotAllowed))
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, logger, models.NewAPIError(models.ErrorCodeNotFound, "Not found", nil, http.StatusNotFound))
	})
}
