package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newHandlerFixture(t *testing.T) (*Handler, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	return NewHandler(f.service), f
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestRegisterHandlerReturnsTokenPair(t *testing.T) {
	handler, _ := newHandlerFixture(t)

	rec := postJSON(t, handler.Register, "/api/auth/register",
		`{"email":"a@example.com","password":"password123","confirmPassword":"password123"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	if body["accessToken"] == "" || body["refreshToken"] == "" {
		t.Fatalf("expected token pair, got %v", body)
	}
}

func TestRegisterHandlerRejectsMismatchedPasswords(t *testing.T) {
	handler, _ := newHandlerFixture(t)

	rec := postJSON(t, handler.Register, "/api/auth/register",
		`{"email":"a@example.com","password":"password123","confirmPassword":"different1"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["message"] != "Passwords do not match" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestRegisterHandlerRejectsInvalidPayload(t *testing.T) {
	handler, _ := newHandlerFixture(t)

	cases := map[string]string{
		"bad json":       `{"email":`,
		"unknown field":  `{"email":"a@example.com","password":"password123","confirmPassword":"password123","admin":true}`,
		"short password": `{"email":"a@example.com","password":"short","confirmPassword":"short"}`,
		"bad email":      `{"email":"not-an-email","password":"password123","confirmPassword":"password123"}`,
	}

	for name, payload := range cases {
		rec := postJSON(t, handler.Register, "/api/auth/register", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestLoginHandlerUnknownEmail(t *testing.T) {
	handler, _ := newHandlerFixture(t)

	rec := postJSON(t, handler.Login, "/api/auth/login",
		`{"email":"ghost@example.com","password":"password123"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["message"] != "User does not exist with the provided email" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestLoginHandlerWrongPasswordReportsRemaining(t *testing.T) {
	handler, f := newHandlerFixture(t)
	f.register(t, "a@example.com", "password123")

	rec := postJSON(t, handler.Login, "/api/auth/login",
		`{"email":"a@example.com","password":"wrongpassword"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	message, _ := body["message"].(string)
	if !strings.Contains(message, "4 more attempt(s)") {
		t.Fatalf("expected remaining-attempts message, got %q", message)
	}
}

func TestLoginHandlerLockedAccountReturns423(t *testing.T) {
	handler, f := newHandlerFixture(t)
	f.register(t, "a@example.com", "password123")

	for i := 0; i < 5; i++ {
		postJSON(t, handler.Login, "/api/auth/login",
			`{"email":"a@example.com","password":"wrongpassword"}`)
	}

	rec := postJSON(t, handler.Login, "/api/auth/login",
		`{"email":"a@example.com","password":"password123"}`)

	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	lockedUntil, _ := body["lockedUntil"].(string)
	if lockedUntil == "" {
		t.Fatalf("expected lockedUntil in body, got %v", body)
	}
	if _, err := time.Parse(time.RFC3339, lockedUntil); err != nil {
		t.Fatalf("lockedUntil not RFC3339: %v", err)
	}
}

func TestRefreshHandlerRoundTrip(t *testing.T) {
	handler, f := newHandlerFixture(t)
	pair := f.register(t, "a@example.com", "password123")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec := httptest.NewRecorder()
	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	if body["refreshToken"] != pair.RefreshToken {
		t.Fatal("refresh token must be returned unchanged")
	}
}

func TestRefreshHandlerRejectsMissingAndBadTokens(t *testing.T) {
	handler, _ := newHandlerFixture(t)

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "Bearer nonsense",
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.Refresh(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestLogoutHandlerAlwaysNoContent(t *testing.T) {
	handler, f := newHandlerFixture(t)
	pair := f.register(t, "a@example.com", "password123")

	for name, header := range map[string]string{
		"known token":   "Bearer " + pair.RefreshToken,
		"unknown token": "Bearer nonsense",
		"no token":      "",
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.Logout(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s: expected 204, got %d", name, rec.Code)
		}
	}
}

func TestErrorEnvelopeShape(t *testing.T) {
	handler, _ := newHandlerFixture(t)

	rec := postJSON(t, handler.Login, "/api/auth/login",
		`{"email":"ghost@example.com","password":"password123"}`)

	body := decodeEnvelope(t, rec)
	for _, field := range []string{"error", "message", "timestamp", "status"} {
		if _, ok := body[field]; !ok {
			t.Fatalf("envelope missing %q: %v", field, body)
		}
	}
	if status, _ := body["status"].(float64); int(status) != http.StatusBadRequest {
		t.Fatalf("status field should mirror the HTTP code, got %v", body["status"])
	}
}
