package handler

import (
	"log/slog"
	"net/http"

	"skiff/internal/domain"
	"skiff/internal/domain/repositories"
	"skiff/internal/httputil"
)

// SuggestionHandler serves document edit suggestions.
type SuggestionHandler struct {
	suggestions repositories.SuggestionRepository
	logger      *slog.Logger
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(suggestions repositories.SuggestionRepository, logger *slog.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		suggestions: suggestions,
		logger:      logger,
	}
}

// GetSuggestions returns the suggestions generated for a document.
// GET /api/suggestions?documentId=
func (h *SuggestionHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	documentID := r.URL.Query().Get("documentId")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "documentId query parameter is required")
		return
	}

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	suggestions, err := h.suggestions.GetSuggestionsByDocument(r.Context(), documentID)
	if err != nil {
		handleError(w, err)
		return
	}
	if len(suggestions) > 0 && suggestions[0].UserID != principal.UserID {
		handleError(w, domain.NewForbiddenError("suggestions belong to another user"))
		return
	}

	httputil.RespondJSON(w, http.StatusOK, suggestions)
}
