package auth

import (
	"context"
	"net/http"
	"strings"

	"healthmonitor/internal/users"
	"healthmonitor/internal/web"
)

type contextKey int

const userContextKey contextKey = iota

// UserFrom returns the identity attached to the request context, if any.
func UserFrom(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(userContextKey).(*users.User)
	return user, ok
}

// Authenticator resolves bearer access tokens to identities. It is
// deliberately fail-open: a missing, malformed or expired token passes
// the request through unauthenticated, and route-level checks decide
// whether that matters. Access tokens are stateless; no store lookup.
type Authenticator struct {
	codec     *TokenCodec
	userStore UserStore
}

func NewAuthenticator(codec *TokenCodec, userStore UserStore) *Authenticator {
	return &Authenticator{codec: codec, userStore: userStore}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := a.codec.Verify(token, KindAccess)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := UserFrom(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.userStore.FindByEmail(r.Context(), subject)
		if err != nil || user == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests that reached the handler without a
// resolved identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			web.RespondError(w, http.StatusUnauthorized, "Unauthorized",
				"Authentication failed. You must log in to access this content.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
