package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"skiff/internal/httputil"
	"skiff/internal/upload"
)

// FilesHandler handles attachment upload and serving.
type FilesHandler struct {
	store  *upload.Store
	logger *slog.Logger
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(store *upload.Store, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{
		store:  store,
		logger: logger,
	}
}

// Upload accepts one multipart file field named "file", at most 5MB,
// JPEG or PNG only.
// POST /api/files/upload
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}

	// Parse multipart form, capped slightly above the file limit so an
	// oversize file fails our check rather than the form parser
	if err := r.ParseMultipartForm(upload.MaxFileSize + 1<<20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	stored, err := h.store.Save(header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		if errors.Is(err, upload.ErrFileTooLarge) || errors.Is(err, upload.ErrUnsupportedType) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("upload failed", "filename", header.Filename, "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, stored)
}

// Serve streams a stored upload back to the client with a content type
// inferred from its extension.
// GET /uploads/{filename}
func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name, ok := PathParam(w, r, "filename", "File name")
	if !ok {
		return
	}

	path, err := h.store.Path(name)
	if err != nil {
		httputil.RespondError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Type", upload.ContentTypeFor(name))
	http.ServeFile(w, r, path)
}
