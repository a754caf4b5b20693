package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const (
	ctxUserIDKey   contextKey = "user_id"
	ctxBadTokenKey contextKey = "bad_token"
)

// TokenValidator resolves a session token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (int64, error)
}

// OptionalAuth puts the bearer identity into the request context when the
// Authorization header carries a valid session token. Requests without a
// token pass through untouched; requests with an invalid one are marked so
// that handlers needing an identity can reject them.
func OptionalAuth(tv TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if id, err := tv.ValidateToken(raw); err == nil {
				ctx = WithUserID(ctx, id)
			} else {
				ctx = context.WithValue(ctx, ctxBadTokenKey, true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards operator routes with a static bearer token. An empty
// token disables the routes entirely.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "missing or malformed Authorization header", "unauthorized")
				return
			}
			if token == "" || subtle.ConstantTimeCompare([]byte(raw), []byte(token)) != 1 {
				writeError(w, http.StatusForbidden, "admin access required", "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromCtx returns the authenticated user id, if any.
func UserIDFromCtx(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxUserIDKey).(int64)
	return id, ok
}

// WithUserID returns a context carrying the given user id.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, id)
}

// TokenRejected reports whether the request presented a token that failed validation.
func TokenRejected(ctx context.Context) bool {
	bad, _ := ctx.Value(ctxBadTokenKey).(bool)
	return bad
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

type errorBody struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Message: msg, Kind: kind})
}
