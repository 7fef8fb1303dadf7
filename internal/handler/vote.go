package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"skiff/internal/domain"
	"skiff/internal/domain/repositories"
	"skiff/internal/httputil"
)

// Vote direction values accepted over the wire.
const (
	voteUp   = "up"
	voteDown = "down"
)

// VoteHandler handles message voting.
type VoteHandler struct {
	votes  repositories.VoteRepository
	chats  repositories.ChatRepository
	logger *slog.Logger
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(votes repositories.VoteRepository, chats repositories.ChatRepository, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{
		votes:  votes,
		chats:  chats,
		logger: logger,
	}
}

// GetVotes returns every vote in the chat.
// GET /api/vote?chatId=
func (h *VoteHandler) GetVotes(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "chatId query parameter is required")
		return
	}

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	chat, err := h.chats.GetChat(r.Context(), chatID)
	if err != nil {
		handleError(w, err)
		return
	}
	if chat.UserID != principal.UserID {
		handleError(w, domain.NewForbiddenError("chat belongs to another user"))
		return
	}

	votes, err := h.votes.GetVotesByChat(r.Context(), chatID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, votes)
}

// VoteRequest is the PATCH /api/vote body.
type VoteRequest struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	Type      string `json:"type"`
}

// Validate implements request validation.
func (req VoteRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ChatID, validation.Required),
		validation.Field(&req.MessageID, validation.Required),
		validation.Field(&req.Type, validation.Required, validation.In(voteUp, voteDown)),
	)
}

// PatchVote records an up or down vote, overwriting any previous vote on
// the same message.
// PATCH /api/vote
func (h *VoteHandler) PatchVote(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req VoteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	chat, err := h.chats.GetChat(r.Context(), req.ChatID)
	if err != nil {
		handleError(w, err)
		return
	}
	if chat.UserID != principal.UserID {
		handleError(w, domain.NewForbiddenError("chat belongs to another user"))
		return
	}

	if err := h.votes.VoteMessage(r.Context(), req.ChatID, req.MessageID, req.Type == voteUp); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
