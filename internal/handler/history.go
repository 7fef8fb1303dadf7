package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"skiff/internal/domain/repositories"
	"skiff/internal/httputil"
)

// defaultHistoryLimit is the page size when the client sends no limit.
const defaultHistoryLimit = 10

// HistoryHandler handles the chat history listing endpoints.
type HistoryHandler struct {
	chats  repositories.ChatRepository
	logger *slog.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(chats repositories.ChatRepository, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		chats:  chats,
		logger: logger,
	}
}

// GetHistory lists the acting user's chats newest first, cursor-paginated.
// At most one of starting_after / ending_before may be set.
// GET /api/history?limit=&starting_after=&ending_before=
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	limit := defaultHistoryLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	page := repositories.ChatPage{Limit: limit}
	if raw := query.Get("starting_after"); raw != "" {
		page.StartingAfter = &raw
	}
	if raw := query.Get("ending_before"); raw != "" {
		page.EndingBefore = &raw
	}
	if page.StartingAfter != nil && page.EndingBefore != nil {
		httputil.RespondError(w, http.StatusBadRequest, "only one of starting_after or ending_before can be provided")
		return
	}

	history, err := h.chats.ListChatsForUser(r.Context(), principal.UserID, page)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, history)
}

// DeleteHistory deletes every chat the acting user owns.
// DELETE /api/history
func (h *HistoryHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	deleted, err := h.chats.DeleteAllChatsForUser(r.Context(), principal.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("deleted chat history", "user_id", principal.UserID, "count", deleted)
	httputil.RespondJSON(w, http.StatusOK, map[string]int64{"deletedCount": deleted})
}
