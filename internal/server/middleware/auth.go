package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hearthml/hearth/internal/service"
)

type contextKeyAuth string

// AuthPrincipalKey is the context key for the authenticated principal.
const AuthPrincipalKey contextKeyAuth = "auth_principal"

// Authenticate returns an HTTP middleware that validates the request's
// bearer token and re-checks the backing key's live state on every request.
// On success, the resolved Principal is attached to the request context.
//
// All failures produce the same 401 response: the caller learns that the
// request was rejected, never whether the token was malformed, expired, or
// bound to a deactivated key.
func Authenticate(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, r)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			principal, err := authSvc.Authenticate(r.Context(), token)
			if err != nil {
				writeAuthError(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), AuthPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *service.Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*service.Principal); ok {
		return p
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	// Manually construct JSON to avoid an import cycle with the handler
	// package. The message is identical for every failure mode.
	body := `{"error":{"code":401,"message":"Could not validate credentials"`
	if id := GetRequestID(r.Context()); id != "" {
		body += `,"request_id":"` + id + `"`
	}
	body += `}}`
	w.Write([]byte(body))
}
