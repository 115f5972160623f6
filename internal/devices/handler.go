package devices

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"healthmonitor/internal/vitals"
	"healthmonitor/internal/web"
)

const (
	maxJSONBodyBytes    = 1 << 20
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	DeviceID string `json:"deviceId" validate:"required,max=50"`
}

type vitalRequest struct {
	DeviceID        string   `json:"deviceId" validate:"required,max=50"`
	HeartRate       *float64 `json:"heartRate" validate:"required"`
	OxygenLevel     *float64 `json:"oxygenLevel" validate:"required,gte=0,lte=100"`
	BodyTemperature *float64 `json:"bodyTemperature" validate:"required"`
	Steps           *int     `json:"steps" validate:"required,gte=0"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListWithLatestVital(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) ListStatus(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListWithStatus(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !h.decodeBody(w, r, &body) {
		return
	}

	device, err := h.service.Register(r.Context(), body.DeviceID)
	if err != nil {
		if errors.Is(err, ErrDeviceExists) {
			web.RespondError(w, http.StatusBadRequest, "Bad Request",
				"Device already registered: "+body.DeviceID)
			return
		}
		h.internalError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusCreated, &Overview{DeviceID: device.DeviceID, Active: device.Active})
}

func (h *Handler) IngestData(w http.ResponseWriter, r *http.Request) {
	var body vitalRequest
	if !h.decodeBody(w, r, &body) {
		return
	}

	vital := &vitals.Vital{
		DeviceID:        body.DeviceID,
		HeartRate:       *body.HeartRate,
		OxygenLevel:     *body.OxygenLevel,
		BodyTemperature: *body.BodyTemperature,
		Steps:           *body.Steps,
	}

	saved, err := h.service.Ingest(r.Context(), vital)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			web.RespondError(w, http.StatusBadRequest, "Bad Request",
				"Device not found or inactive: "+body.DeviceID)
			return
		}
		h.internalError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, saved)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxHistoryLimit {
			web.RespondError(w, http.StatusBadRequest, "Bad Request",
				"limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	history, err := h.service.History(r.Context(), deviceID, limit)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			web.RespondError(w, http.StatusBadRequest, "Bad Request", "Device not found: "+deviceID)
			return
		}
		h.internalError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, history)
}

func (h *Handler) AcknowledgeAlerts(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")

	acked, err := h.service.AcknowledgeAlerts(r.Context(), deviceID)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			web.RespondError(w, http.StatusBadRequest, "Bad Request", "Device not found: "+deviceID)
			return
		}
		h.internalError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, acked)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")

	if err := h.service.Deactivate(r.Context(), deviceID); err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			web.RespondError(w, http.StatusBadRequest, "Bad Request", "Device not found: "+deviceID)
			return
		}
		h.internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		web.RespondError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return false
	}
	if err := web.ValidateStruct(dst); err != nil {
		web.RespondError(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}

	return true
}

func (h *Handler) internalError(w http.ResponseWriter, err error) {
	sentry.CaptureException(err)
	web.RespondError(w, http.StatusInternalServerError, "Internal Server Error",
		"An unexpected error occurred. Please contact support.")
}
