package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userKey contextKey = "auth_user"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID int64
	Email  string
}

// Required returns middleware that rejects requests without a valid Bearer
// token.
func Required(tm *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := identityFromRequest(tm, r)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"authentication required"}`))
				return
			}
			ctx := context.WithValue(r.Context(), userKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Optional returns middleware that attaches the caller's identity when a
// valid token is present and passes the request through anonymously
// otherwise.
func Optional(tm *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, ok := identityFromRequest(tm, r); ok {
				r = r.WithContext(context.WithValue(r.Context(), userKey, identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FromContext returns the authenticated identity, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(userKey).(*Identity)
	return identity, ok
}

func identityFromRequest(tm *TokenManager, r *http.Request) (*Identity, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	claims, err := tm.Verify(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, false
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email}, true
}
