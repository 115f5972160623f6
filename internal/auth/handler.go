package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"healthmonitor/internal/web"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email,max=100"`
	Password        string `json:"password" validate:"required,min=8,max=200"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := web.ValidateStruct(body); err != nil {
		web.RespondError(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	pair, err := h.service.Register(r.Context(), body.Email, body.Password, body.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrPasswordMismatch):
			web.RespondError(w, http.StatusBadRequest, "Validation Error", "Passwords do not match")
		case errors.Is(err, ErrEmailTaken):
			web.RespondError(w, http.StatusBadRequest, "Bad Request", "Email already in use")
		default:
			h.internalError(w, err)
		}
		return
	}

	web.RespondJSON(w, http.StatusOK, pair)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := web.ValidateStruct(body); err != nil {
		web.RespondError(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	pair, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		var locked AccountLockedError
		var invalid InvalidCredentialsError
		switch {
		case errors.Is(err, ErrUserNotFound):
			web.RespondError(w, http.StatusBadRequest, "Bad Request",
				"User does not exist with the provided email")
		case errors.As(err, &locked):
			respondLocked(w, locked)
		case errors.As(err, &invalid):
			web.RespondError(w, http.StatusUnauthorized, "Authentication Failed",
				fmt.Sprintf("Invalid credentials. You have %d more attempt(s) before your account gets locked.", invalid.Remaining))
		default:
			h.internalError(w, err)
		}
		return
	}

	web.RespondJSON(w, http.StatusOK, pair)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		web.RespondError(w, http.StatusBadRequest, "Bad Request", "Invalid or expired refresh token")
		return
	}

	pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrUserNotFound) {
			web.RespondError(w, http.StatusBadRequest, "Bad Request", "Invalid or expired refresh token")
			return
		}
		h.internalError(w, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, pair)
}

// Logout never fails for an unknown or missing token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		h.internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) internalError(w http.ResponseWriter, err error) {
	sentry.CaptureException(err)
	web.RespondError(w, http.StatusInternalServerError, "Internal Server Error",
		"An unexpected error occurred. Please contact support.")
}

func respondLocked(w http.ResponseWriter, locked AccountLockedError) {
	extra := map[string]any{}
	message := "Account is locked due to multiple failed login attempts."
	if !locked.Until.IsZero() {
		until := locked.Until.UTC().Format(time.RFC3339)
		extra["lockedUntil"] = until
		message = fmt.Sprintf("Account is locked due to multiple failed login attempts. Try again at %s", until)
	}

	web.RespondErrorWith(w, http.StatusLocked, "Account Locked", message, extra)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		web.RespondError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return false
	}

	return true
}
