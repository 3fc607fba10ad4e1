package middleware

import (
	"net/http"

	"github.com/shindakun/urlshort/internal/auth"
	"github.com/shindakun/urlshort/internal/models"
)

// RequireAuth is a middleware that requires a stored login
// Redirects to the login page if no valid session is found
func RequireAuth(sessionManager *auth.SessionManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessionManager.GetSession(r)
			if err != nil || session == nil {
				http.Redirect(w, r, models.LoginPath, http.StatusSeeOther)
				return
			}

			setLogUsername(r.Context(), session.Username)

			// Session is valid, add to context and continue
			ctx := auth.SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
