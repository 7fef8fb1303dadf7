package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"skiff/internal/domain"
	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
	"skiff/internal/httputil"
)

// DocumentHandler handles artifact document persistence. Documents are
// versioned: every save appends a row and "the document" is the latest one.
type DocumentHandler struct {
	documents repositories.DocumentRepository
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents repositories.DocumentRepository, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		logger:    logger,
	}
}

// GetDocument returns every version of the document, oldest first.
// GET /api/document?id=
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	versions, err := h.documents.GetDocumentVersions(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if versions[0].UserID != principal.UserID {
		handleError(w, domain.NewForbiddenError("document belongs to another user"))
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// SaveDocumentRequest is the POST /api/document body.
type SaveDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Kind    string `json:"kind"`
}

// Validate implements request validation.
func (req SaveDocumentRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required),
		validation.Field(&req.Kind,
			validation.Required,
			validation.In(models.DocumentKindText, models.DocumentKindCode, models.DocumentKindSheet),
		),
	)
}

// SaveDocument appends a new version of the document.
// POST /api/document?id=
func (h *DocumentHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req SaveDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A document that already has versions can only be extended by its owner
	latest, err := h.documents.GetLatestDocument(r.Context(), id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		handleError(w, err)
		return
	}
	if latest != nil && latest.UserID != principal.UserID {
		handleError(w, domain.NewForbiddenError("document belongs to another user"))
		return
	}

	content := req.Content
	doc := &models.Document{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Title:     req.Title,
		Content:   &content,
		Kind:      req.Kind,
		UserID:    principal.UserID,
	}
	if err := h.documents.SaveDocument(r.Context(), doc); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteVersionsAfter rolls the document back to the given version by
// deleting every version created after the timestamp, returning the
// removed versions.
// DELETE /api/document?id=&timestamp=
func (h *DocumentHandler) DeleteVersionsAfter(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "id query parameter is required")
		return
	}
	rawTimestamp := r.URL.Query().Get("timestamp")
	if rawTimestamp == "" {
		httputil.RespondError(w, http.StatusBadRequest, "timestamp query parameter is required")
		return
	}
	timestamp, err := time.Parse(time.RFC3339, rawTimestamp)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "timestamp must be RFC 3339")
		return
	}

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	latest, err := h.documents.GetLatestDocument(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if latest.UserID != principal.UserID {
		handleError(w, domain.NewForbiddenError("document belongs to another user"))
		return
	}

	deleted, err := h.documents.DeleteDocumentVersionsAfter(r.Context(), id, timestamp)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, deleted)
}
