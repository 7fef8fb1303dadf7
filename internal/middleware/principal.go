package middleware

import (
	"net/http"

	"skiff/internal/domain/models"
	"skiff/internal/httputil"
)

// Principal injects the acting user into every request. There is no login
// flow yet; the server resolves a single development user at startup and a
// real auth layer can later replace this middleware without touching the
// handlers, which only read the principal from context.
func Principal(principal models.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = httputil.WithPrincipal(r, principal)
			next.ServeHTTP(w, r)
		})
	}
}
