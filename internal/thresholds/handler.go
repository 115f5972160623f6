package thresholds

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"healthmonitor/internal/web"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type updateRequest struct {
	Metric   string   `json:"metric" validate:"required,oneof=HEART_RATE OXYGEN_LEVEL BODY_TEMPERATURE"`
	MinValue *float64 `json:"minValue"`
	MaxValue *float64 `json:"maxValue"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		web.RespondError(w, http.StatusInternalServerError, "Internal Server Error",
			"An unexpected error occurred. Please contact support.")
		return
	}

	web.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var body updateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		web.RespondError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if err := web.ValidateStruct(body); err != nil {
		web.RespondError(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.UpdateValues(r.Context(), body.Metric, body.MinValue, body.MaxValue)
	if err != nil {
		if errors.Is(err, ErrMetricNotFound) {
			web.RespondError(w, http.StatusBadRequest, "Bad Request",
				"Threshold not found for metric: "+body.Metric)
			return
		}
		sentry.CaptureException(err)
		web.RespondError(w, http.StatusInternalServerError, "Internal Server Error",
			"An unexpected error occurred. Please contact support.")
		return
	}

	web.RespondJSON(w, http.StatusOK, updated)
}
