package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthmonitor/internal/users"
)

func newAuthFixture(t *testing.T) (*Authenticator, *TokenCodec, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := newMemoryUserStore()
	if err := store.Save(context.Background(), &users.User{Email: "a@example.com", PasswordHash: "x"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	codec := NewTokenCodec("secret", clock.Now)
	return NewAuthenticator(codec, store), codec, clock
}

func TestAuthenticatorAttachesUser(t *testing.T) {
	authenticator, codec, _ := newAuthFixture(t)

	var got *users.User
	handler := authenticator.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFrom(r.Context())
	}))

	token, _ := codec.Issue("a@example.com", KindAccess, 15*time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user attached to context")
	}
	if got.Email != "a@example.com" {
		t.Fatalf("wrong user attached: %q", got.Email)
	}
}

func TestAuthenticatorFailsOpen(t *testing.T) {
	authenticator, codec, clock := newAuthFixture(t)

	expired, _ := codec.Issue("a@example.com", KindAccess, time.Minute)
	clock.Advance(2 * time.Minute)
	refresh, _ := codec.Issue("a@example.com", KindRefresh, time.Hour)

	cases := map[string]string{
		"no header":       "",
		"malformed":       "Bearer not.a.jwt",
		"expired token":   "Bearer " + expired,
		"refresh as auth": "Bearer " + refresh,
	}

	for name, header := range cases {
		reached := false
		handler := authenticator.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			if _, ok := UserFrom(r.Context()); ok {
				t.Errorf("%s: no user should be attached", name)
			}
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if !reached {
			t.Fatalf("%s: request should pass through", name)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected pass-through 200, got %d", name, rec.Code)
		}
	}
}

func TestRequireUserRejectsAnonymous(t *testing.T) {
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a user")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireUserPassesAuthenticated(t *testing.T) {
	authenticator, codec, _ := newAuthFixture(t)

	reached := false
	handler := authenticator.Middleware(RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})))

	token, _ := codec.Issue("a@example.com", KindAccess, 15*time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Fatal("authenticated request should reach the handler")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
