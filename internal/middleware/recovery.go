package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"skiff/internal/httputil"
)

// statusTracker remembers whether a handler already wrote headers. A panic
// after an SSE stream has started cannot be turned into a clean 500.
type statusTracker struct {
	http.ResponseWriter
	wrote bool
}

func (t *statusTracker) WriteHeader(status int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(status)
}

func (t *statusTracker) Write(p []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(p)
}

func (t *statusTracker) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Recovery turns handler panics into logged 500 responses. When the response
// is already underway the connection is left to the server to tear down.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracker := &statusTracker{ResponseWriter: w}

			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
						"stack", string(debug.Stack()),
					)

					if !tracker.wrote {
						httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
					}
				}
			}()

			next.ServeHTTP(tracker, r)
		})
	}
}
