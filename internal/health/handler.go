package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"healthmonitor/internal/web"
)

type status struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Database  databaseStatus   `json:"database"`
	Counts    map[string]int64 `json:"counts,omitempty"`
}

type databaseStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Handler reports service liveness, database reachability and basic
// row counts for the main tables.
type Handler struct {
	db        *sql.DB
	startedAt time.Time
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{db: db, startedAt: time.Now().UTC()}
}

var countedTables = []string{"users", "devices", "vitals", "alerts"}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	now := time.Now().UTC()
	body := status{
		Status:    "UP",
		Timestamp: now.Format(time.RFC3339),
		Uptime:    now.Sub(h.startedAt).Round(time.Second).String(),
	}

	if err := h.db.PingContext(ctx); err != nil {
		body.Status = "DOWN"
		body.Database = databaseStatus{Connected: false, Error: err.Error()}
		web.RespondJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	body.Database = databaseStatus{Connected: true}
	body.Counts = make(map[string]int64, len(countedTables))
	for _, table := range countedTables {
		var count int64
		if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			// A missing count degrades the report, not the service.
			continue
		}
		body.Counts[table] = count
	}

	web.RespondJSON(w, http.StatusOK, body)
}
