package handler

import (
	"net/http"

	"skiff/internal/httputil"
)

// Health reports server liveness.
// GET /api/health
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
