package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pickup-service/internal/report"
	"pickup-service/internal/service"
	"pickup-service/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HTTPHandler handles HTTP requests for the pickup service
type HTTPHandler struct {
	pickupService *service.PickupService
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(pickupService *service.PickupService, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		pickupService: pickupService,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
	}
}

// RegisterRoutes sets up HTTP routes. Unknown methods on a known path get a 405.
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/api/log-pickup", h.LogPickup).Methods(http.MethodPost)
	router.HandleFunc("/api/log-pickup/", h.LogPickup).Methods(http.MethodPost)
	router.HandleFunc("/api/get-logs", h.GetLogs).Methods(http.MethodGet)
	router.HandleFunc("/api/get-logs/", h.GetLogs).Methods(http.MethodGet)
	router.HandleFunc("/api/export-csv", h.ExportCSV).Methods(http.MethodGet)
	router.HandleFunc("/api/export-csv/", h.ExportCSV).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	router.NotFoundHandler = http.HandlerFunc(notFound)
}

// Health returns service health status
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// CreatePickupRequest represents a pickup submission
type CreatePickupRequest struct {
	Timestamp string `json:"timestamp" validate:"required"`
	Child     string `json:"child" validate:"required"`
}

// CreatePickupResponse is returned after a pickup was logged
type CreatePickupResponse struct {
	Success bool            `json:"success"`
	Log     *storage.Pickup `json:"log"`
	Message string          `json:"message"`
}

// ListPickupsResponse wraps a filtered listing
type ListPickupsResponse struct {
	Success bool                   `json:"success"`
	Logs    []*storage.Pickup      `json:"logs"`
	Stats   map[string]interface{} `json:"stats"`
}

// LogPickup prices and stores a new pickup
func (h *HTTPHandler) LogPickup(w http.ResponseWriter, r *http.Request) {
	var req CreatePickupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Timestamp = strings.TrimSpace(req.Timestamp)
	req.Child = strings.TrimSpace(req.Child)
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Timestamp and child are required")
		return
	}

	pickup, err := h.pickupService.LogPickup(r.Context(), req.Timestamp, req.Child)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "Timestamp and child are required")
		return
	case errors.Is(err, service.ErrInvalidTimestamp):
		writeError(w, http.StatusBadRequest, "Invalid timestamp")
		return
	case errors.Is(err, service.ErrStorageUnavailable):
		writeError(w, http.StatusInternalServerError, "Failed to save log")
		return
	default:
		h.logger.Error("Failed to log pickup", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, CreatePickupResponse{
		Success: true,
		Log:     pickup,
		Message: fmt.Sprintf("Pickup logged for %s at %s", pickup.Child, pickup.PickupTime),
	})
}

// GetLogs returns the log filtered by month, year and child
func (h *HTTPHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := report.Filter{
		Month: report.MonthKey(query.Get("year"), query.Get("month")),
		Child: strings.TrimSpace(query.Get("child")),
	}

	listing := h.pickupService.ListPickups(r.Context(), filter)

	writeJSON(w, http.StatusOK, ListPickupsResponse{
		Success: true,
		Logs:    listing.Pickups,
		Stats: map[string]interface{}{
			"totalCost":    listing.TotalCost,
			"totalPickups": listing.TotalPickups,
			"monthlyStats": listing.MonthlyStats,
		},
	})
}

// ExportCSV downloads the detail or summary report
func (h *HTTPHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	month := report.MonthKey(query.Get("year"), query.Get("month"))

	export, err := h.pickupService.Export(r.Context(), query.Get("type"), month)
	if err != nil {
		h.logger.Error("Failed to export pickups", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Content)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(export.Content)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
