package httpapi

import (
	"context"
	"net/http"
	"strings"

	"portfolio-backend-go/internal/services"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

const notAuthorized = "Not authorized to access this route"

// Protect requires a valid bearer token for an existing account and attaches
// its principal to the request context.
func Protect(users services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, notAuthorized)
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			principal, err := users.Authenticate(r.Context(), tokenStr)
			if err != nil {
				writeServiceError(w, err, "")
				return
			}
			ctx := context.WithValue(r.Context(), ctxPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentPrincipal(r *http.Request) services.Principal {
	if value, ok := r.Context().Value(ctxPrincipal).(services.Principal); ok {
		return value
	}
	return services.Principal{}
}

// Authorize must run after Protect.
func Authorize(c services.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := CurrentPrincipal(r)
			if !principal.Can(c) {
				WriteError(w, http.StatusForbidden, "User role "+principal.Role+" is not authorized to access this route")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
