package alerts

import (
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"healthmonitor/internal/web"
)

const defaultHistoryHours = 24

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Active(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	hours := defaultHistoryHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			web.RespondError(w, http.StatusBadRequest, "Bad Request", "hours must be a positive integer")
			return
		}
		hours = parsed
	}

	list, err := h.service.History(r.Context(), hours)
	if err != nil {
		h.internalError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) ByDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")

	list, err := h.service.ByDevice(r.Context(), deviceID)
	if err != nil {
		h.internalError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) internalError(w http.ResponseWriter, err error) {
	sentry.CaptureException(err)
	web.RespondError(w, http.StatusInternalServerError, "Internal Server Error",
		"An unexpected error occurred. Please contact support.")
}
