package middleware

import (
	"context"
	"net/http"

	"github.com/stayvista/stayvista-api/internal/http/response"
	"github.com/stayvista/stayvista-api/internal/platform/auth"
	"github.com/stayvista/stayvista-api/pkg/logger"
)

type ctxKey string

const ctxOwnerID ctxKey = "owner_id"

// RequireAuth gates protected routes. It reads the session cookie, verifies
// the token, and binds the resolved owner id into the request context before
// any handler logic (in particular, before any multipart parsing) runs.
// Every failure looks the same from the outside: a bare 401.
func RequireAuth(tokens *auth.TokenService, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil {
				response.Unauthorized(w, "unauthorized")
				return
			}

			ownerID, err := tokens.Verify(cookie.Value)
			if err != nil {
				// which check failed stays server-side
				logger.DebugContext(r.Context(), "token verification failed", "error", err)
				response.Unauthorized(w, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), ctxOwnerID, ownerID)
			ctx = context.WithValue(ctx, logger.OwnerIDKey, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerID returns the identity bound by RequireAuth, or "" on an ungated
// request.
func OwnerID(r *http.Request) string {
	v := r.Context().Value(ctxOwnerID)
	if v == nil {
		return ""
	}
	return v.(string)
}
