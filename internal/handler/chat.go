package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"skiff/internal/domain"
	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
	"skiff/internal/handler/sse"
	"skiff/internal/httputil"
	"skiff/internal/observability"
	"skiff/internal/service/llm"
)

// ChatHandler handles chat HTTP requests, including the SSE generation
// stream. Handlers only talk to the turn service and repositories exposed
// through domain interfaces.
type ChatHandler struct {
	turns     *llm.TurnService
	registry  *llm.StreamRegistry
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	streams   repositories.StreamRepository
	sseConfig *sse.Config
	logger    *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	turns *llm.TurnService,
	registry *llm.StreamRegistry,
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	streams repositories.StreamRepository,
	sseConfig *sse.Config,
	logger *slog.Logger,
) *ChatHandler {
	if sseConfig == nil {
		sseConfig = sse.DefaultConfig()
	}
	return &ChatHandler{
		turns:     turns,
		registry:  registry,
		chats:     chats,
		messages:  messages,
		streams:   streams,
		sseConfig: sseConfig,
		logger:    logger,
	}
}

// StreamRequest is the POST /api/chat body. Exactly one of Message and
// Messages is expected: a single new user message for a normal turn, or the
// full transcript for a tool-approval replay.
type StreamRequest struct {
	ID                     string           `json:"id"`
	Message                *models.Message  `json:"message"`
	Messages               []models.Message `json:"messages"`
	SelectedChatModel      string           `json:"selectedChatModel"`
	SelectedVisibilityType string           `json:"selectedVisibilityType"`
}

// Validate implements request validation.
func (req StreamRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ID, validation.Required, validation.By(validUUID)),
		validation.Field(&req.SelectedChatModel, validation.Required),
		validation.Field(&req.SelectedVisibilityType,
			validation.In(models.VisibilityPublic, models.VisibilityPrivate),
		),
	)
}

// validUUID is an ozzo rule checking the value parses as a UUID.
func validUUID(value interface{}) error {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("must be a valid UUID")
	}
	return nil
}

// CreateStream starts a generation turn and streams its chunks.
// POST /api/chat
func (h *ChatHandler) CreateStream(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req StreamRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Message == nil && len(req.Messages) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "message or messages is required")
		return
	}

	visibility := req.SelectedVisibilityType
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}

	handle, err := h.turns.StreamTurn(r.Context(), &llm.TurnRequest{
		ChatID:     req.ID,
		Message:    req.Message,
		Messages:   req.Messages,
		Model:      req.SelectedChatModel,
		Visibility: visibility,
		Principal:  principal,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	h.streamToClient(w, r, handle)
}

// ResumeStream re-attaches a client to the chat's in-flight generation.
// Returns 204 when no stream is active for the chat.
// GET /api/chat/{id}/stream
func (h *ChatHandler) ResumeStream(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat ID")
	if !ok {
		return
	}

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if _, err := h.authorizeChat(r.Context(), chatID, principal); err != nil {
		handleError(w, err)
		return
	}

	markers, err := h.streams.GetStreamMarkersByChat(r.Context(), chatID)
	if err != nil {
		handleError(w, err)
		return
	}
	if len(markers) == 0 {
		handleError(w, domain.NewNotFoundError("no streams found for chat"))
		return
	}

	handle := h.registry.Active(chatID)
	if handle == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.streamToClient(w, r, handle)
}

// streamToClient relays the handle's buffered history and then live chunks
// as SSE frames, with keep-alive pings, until the stream finishes or the
// client disconnects.
func (h *ChatHandler) streamToClient(w http.ResponseWriter, r *http.Request, handle *llm.StreamHandle) {
	writer, err := sse.NewEventWriter(w)
	if err != nil {
		h.logger.Error("sse not supported", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	observability.IncStreamActive("sse")
	defer observability.DecStreamActive("sse")

	history, live, unsubscribe := handle.Subscribe()
	defer unsubscribe()

	for _, chunk := range history {
		if err := writer.WriteEvent(chunk); err != nil {
			h.logger.Debug("client disconnected during catchup", "stream_id", handle.ID)
			return
		}
	}

	heartbeat := sse.NewHeartbeat(h.sseConfig.KeepAliveInterval)
	defer heartbeat.Stop()

	for {
		select {
		case chunk, open := <-live:
			if !open {
				return
			}
			if err := writer.WriteEvent(chunk); err != nil {
				h.logger.Debug("client disconnected", "stream_id", handle.ID)
				return
			}
		case <-heartbeat.C():
			if err := writer.WriteKeepAlive(); err != nil {
				h.logger.Debug("keep-alive failed, client gone", "stream_id", handle.ID)
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// GetChat retrieves a single chat by ID.
// GET /api/chat/{id}
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat ID")
	if !ok {
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
	if chat.Visibility == models.VisibilityPrivate && chat.UserID != principal.UserID {
		handleError(w, domain.NewForbiddenError("chat is private"))
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// GetMessages returns the chat's transcript ascending by creation time.
// GET /api/chat/{id}/messages
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat ID")
	if !ok {
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
	if chat.Visibility == models.VisibilityPrivate && chat.UserID != principal.UserID {
		handleError(w, domain.NewForbiddenError("chat is private"))
		return
	}

	messages, err := h.messages.GetMessagesByChat(r.Context(), chatID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}

// DeleteChat deletes a chat and everything attached to it, returning the
// deleted record.
// DELETE /api/chat?id=
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("id")
	if chatID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if _, err := h.authorizeChat(r.Context(), chatID, principal); err != nil {
		handleError(w, err)
		return
	}

	deleted, err := h.chats.DeleteChat(r.Context(), chatID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, deleted)
}

// VisibilityRequest is the PATCH /api/chat/{id}/visibility body.
type VisibilityRequest struct {
	Visibility string `json:"visibility"`
}

// Validate implements request validation.
func (req VisibilityRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Visibility,
			validation.Required,
			validation.In(models.VisibilityPublic, models.VisibilityPrivate),
		),
	)
}

// UpdateVisibility switches a chat between public and private.
// PATCH /api/chat/{id}/visibility
func (h *ChatHandler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	chatID, ok := PathParam(w, r, "id", "Chat ID")
	if !ok {
		return
	}

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req VisibilityRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.authorizeChat(r.Context(), chatID, principal); err != nil {
		handleError(w, err)
		return
	}

	if err := h.chats.UpdateChatVisibility(r.Context(), chatID, req.Visibility); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteTrailingMessages removes the given message and everything after it
// in its chat, votes included.
// DELETE /api/messages/{id}/trailing
func (h *ChatHandler) DeleteTrailingMessages(w http.ResponseWriter, r *http.Request) {
	messageID, ok := PathParam(w, r, "id", "Message ID")
	if !ok {
		return
	}

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	message, err := h.messages.GetMessage(r.Context(), messageID)
	if err != nil {
		handleError(w, err)
		return
	}

	if _, err := h.authorizeChat(r.Context(), message.ChatID, principal); err != nil {
		handleError(w, err)
		return
	}

	deleted, err := h.messages.DeleteMessagesAfter(r.Context(), message.ChatID, message.CreatedAt)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int64{"deletedCount": deleted})
}

// authorizeChat fetches the chat and verifies the principal owns it.
func (h *ChatHandler) authorizeChat(ctx context.Context, chatID string, principal models.Principal) (*models.Chat, error) {
	chat, err := h.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.UserID != principal.UserID {
		return nil, domain.NewForbiddenError("chat belongs to another user")
	}
	return chat, nil
}
