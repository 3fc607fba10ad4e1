package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// CSRFProtection creates a CSRF protection middleware using gorilla/csrf.
// When secure is false requests are marked as plaintext so the HTTPS-only
// referer check does not reject local development traffic.
func CSRFProtection(secret []byte, secure bool, fieldName string, logger *zap.Logger) func(http.Handler) http.Handler {
	if fieldName == "" {
		fieldName = "csrf_token"
	}

	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName(fieldName),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.ErrorHandler(CSRFFailureHandler(logger)),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if secure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

// CSRFFailureHandler answers requests whose CSRF token is missing or stale
func CSRFFailureHandler(logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("csrf validation failed",
			zap.String("path", r.URL.Path),
			zap.NamedError("reason", csrf.FailureReason(r)),
		)
		http.Error(w, "CSRF token validation failed. Please refresh the page and try again.", http.StatusForbidden)
	})
}
