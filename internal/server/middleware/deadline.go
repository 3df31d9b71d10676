package middleware

import (
	"net/http"
	"time"
)

// NoWriteDeadline clears the server write timeout for routes that may wait
// on a rate-limited snapshot refresh. Writers that cannot change deadlines
// are left as they are.
func NoWriteDeadline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
		next.ServeHTTP(w, r)
	})
}
