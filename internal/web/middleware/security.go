package middleware

import (
	"net/http"
	"strings"

	"github.com/shindakun/urlshort/internal/config"
)

// staticPrefix is where the embedded assets are served; they may be cached
const staticPrefix = "/static/"

type header struct {
	name, value string
}

// SecurityHeaders adds the configured security headers to every response.
// Everything outside /static/ also gets Cache-Control, so a login form or a
// profile page is not replayed from the browser cache after logout.
func SecurityHeaders(cfg *config.Config) func(http.Handler) http.Handler {
	h := cfg.Server.Security.Headers

	var set []header
	add := func(name, value string) {
		if value != "" {
			set = append(set, header{name, value})
		}
	}
	add("X-Frame-Options", h.XFrameOptions)
	add("X-Content-Type-Options", h.XContentTypeOptions)
	add("Referrer-Policy", h.ReferrerPolicy)
	add("Content-Security-Policy", h.ContentSecurityPolicy)
	// HSTS over plain http would lock out local development
	if cfg.IsHTTPS() {
		add("Strict-Transport-Security", h.StrictTransportSecurity)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, hd := range set {
				w.Header().Set(hd.name, hd.value)
			}
			if h.CacheControl != "" && !strings.HasPrefix(r.URL.Path, staticPrefix) {
				w.Header().Set("Cache-Control", h.CacheControl)
			}

			next.ServeHTTP(w, r)
		})
	}
}
