package middleware

import (
	"net/http"
)

// MaxBytesMiddleware caps request bodies at maxBytes. A request that
// declares a larger Content-Length is answered with 413 before any handler
// runs; bodies of unknown length are cut off while they are read. A
// non-positive limit disables the check.
func MaxBytesMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
