package reports

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"healthmonitor/internal/devices"
	"healthmonitor/internal/observability"
	"healthmonitor/internal/web"
)

const defaultWindowMinutes = 60

type Handler struct {
	service *Service
	log     *observability.Logger
}

func NewHandler(service *Service, log *observability.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Generate handles GET /api/reports?deviceId=...&window=...
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	deviceID, window, ok := h.params(w, r)
	if !ok {
		return
	}

	report, err := h.service.Generate(r.Context(), deviceID, window)
	if err != nil {
		h.reportError(w, r, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, report)
}

// Export handles GET /api/reports/export?deviceId=...&window=...
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	deviceID, window, ok := h.params(w, r)
	if !ok {
		return
	}

	csv, err := h.service.ExportCSV(r.Context(), deviceID, window)
	if err != nil {
		h.reportError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"report-%s.csv\"", deviceID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csv))
}

func (h *Handler) params(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		web.RespondError(w, http.StatusBadRequest, "Validation Error", "deviceId query parameter is required")
		return "", 0, false
	}

	window := defaultWindowMinutes
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			web.RespondError(w, http.StatusBadRequest, "Validation Error", "window must be a positive integer of minutes")
			return "", 0, false
		}
		window = parsed
	}

	return deviceID, window, true
}

func (h *Handler) reportError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, devices.ErrDeviceNotFound) {
		web.RespondError(w, http.StatusNotFound, "Not Found", "Device not found")
		return
	}
	sentry.CaptureException(err)
	h.log.Error("report generation failed", map[string]any{"path": r.URL.Path, "error": err.Error()})
	web.RespondError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred. Please contact support.")
}
