package handler

import (
	"log/slog"
	"net/http"

	"skiff/internal/catalog"
	"skiff/internal/httputil"
)

// ModelsHandler serves the chat model catalog.
type ModelsHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(c *catalog.Catalog, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		catalog: c,
		logger:  logger,
	}
}

// ListModels returns every selectable chat model.
// GET /api/models
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.catalog.Models())
}
