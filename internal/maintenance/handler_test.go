package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthmonitor/internal/observability"
)

type fakeCleaner struct {
	deleted int64
	err     error
	calls   int
}

func (f *fakeCleaner) DeleteStale(_ context.Context, _ time.Time, _ int) (int64, error) {
	f.calls++
	return f.deleted, f.err
}

func newCleanupRequest(secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	return req
}

func TestCleanupHiddenWithoutSecret(t *testing.T) {
	handler := NewCleanupHandler(&fakeCleaner{}, observability.NewLogger(), "", 14*24*time.Hour, 500)

	rec := httptest.NewRecorder()
	handler.Handle(rec, newCleanupRequest("anything"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when no secret configured, got %d", rec.Code)
	}
}

func TestCleanupRejectsWrongSecret(t *testing.T) {
	cleaner := &fakeCleaner{}
	handler := NewCleanupHandler(cleaner, observability.NewLogger(), "cron-secret", 14*24*time.Hour, 500)

	rec := httptest.NewRecorder()
	handler.Handle(rec, newCleanupRequest("wrong"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if cleaner.calls != 0 {
		t.Fatal("cleanup must not run for unauthorized callers")
	}
}

func TestCleanupReportsDeletedCount(t *testing.T) {
	cleaner := &fakeCleaner{deleted: 42}
	handler := NewCleanupHandler(cleaner, observability.NewLogger(), "cron-secret", 14*24*time.Hour, 500)

	rec := httptest.NewRecorder()
	handler.Handle(rec, newCleanupRequest("cron-secret"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Status  string `json:"status"`
		Deleted int64  `json:"deleted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" || body.Deleted != 42 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCleanupSurfacesStoreErrors(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("db down")}
	handler := NewCleanupHandler(cleaner, observability.NewLogger(), "cron-secret", 14*24*time.Hour, 500)

	rec := httptest.NewRecorder()
	handler.Handle(rec, newCleanupRequest("cron-secret"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
