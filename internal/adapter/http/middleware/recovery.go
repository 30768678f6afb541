package middleware

import (
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/infrastructure/logger"
)

// NewRecovery turns handler panics into a 500 and logs them with the
// request-scoped logger, falling back to fallback outside the logging
// middleware. The request ID is echoed to the client for support lookups.
func NewRecovery(fallback zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestID := chimiddleware.GetReqID(r.Context())
				l := logger.FromContext(r.Context(), fallback)
				l.Error().
					Interface("panic", rec).
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				details := ""
				if requestID != "" {
					details = "request " + requestID
				}
				writeError(w, http.StatusInternalServerError, "internal server error", details)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
