package web

import (
	"encoding/json"
	"net/http"
	"time"
)

func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes the standard error envelope:
// {error, message, timestamp, status}.
func RespondError(w http.ResponseWriter, status int, label, message string) {
	RespondErrorWith(w, status, label, message, nil)
}

// RespondErrorWith is RespondError plus extra fields (e.g. lockedUntil).
func RespondErrorWith(w http.ResponseWriter, status int, label, message string, extra map[string]any) {
	body := map[string]any{
		"error":     label,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    status,
	}
	for k, v := range extra {
		body[k] = v
	}

	RespondJSON(w, status, body)
}
