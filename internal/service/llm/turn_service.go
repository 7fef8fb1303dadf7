package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"skiff/internal/catalog"
	"skiff/internal/domain"
	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
	domainllm "skiff/internal/domain/services/llm"
	"skiff/internal/observability"
	"skiff/internal/service/llm/tools"
)

const (
	// maxToolRounds caps how many provider round-trips one turn may make.
	maxToolRounds = 5

	// thinkingBudgetTokens is the reasoning budget for extended-thinking
	// models.
	thinkingBudgetTokens = 10000

	// errorNotice is the only error text a client ever sees in-stream.
	errorNotice = "Oops, an error occurred!"

	// maxMessagesPerDay caps how many user messages one account may send in
	// any rolling 24 hour window.
	maxMessagesPerDay = 100
)

// TurnRequest describes one POST /api/chat invocation. Exactly one of
// Message (normal turn) or Messages (tool-approval replay) is set.
type TurnRequest struct {
	ChatID     string
	Message    *models.Message
	Messages   []models.Message
	Model      string
	Visibility string
	Principal  models.Principal
}

// Replay reports whether the request is a tool-approval replay carrying the
// full client-side transcript.
func (r *TurnRequest) Replay() bool {
	return len(r.Messages) > 0
}

// TurnServiceConfig holds the dependencies for a TurnService.
type TurnServiceConfig struct {
	Logger      *slog.Logger
	Chats       repositories.ChatRepository
	Messages    repositories.MessageRepository
	Streams     repositories.StreamRepository
	Documents   repositories.DocumentRepository
	Suggestions repositories.SuggestionRepository
	Providers   *ProviderRegistry
	Registry    *StreamRegistry
	Catalog     *catalog.Catalog
	Titles      *TitleGenerator
	Weather     *tools.GetWeather
}

// TurnService runs chat turns: it persists the inbound message, streams the
// model's response through a StreamHandle, executes tool calls and persists
// the finished assistant message.
type TurnService struct {
	logger      *slog.Logger
	chats       repositories.ChatRepository
	messages    repositories.MessageRepository
	streams     repositories.StreamRepository
	documents   repositories.DocumentRepository
	suggestions repositories.SuggestionRepository
	providers   *ProviderRegistry
	registry    *StreamRegistry
	catalog     *catalog.Catalog
	titles      *TitleGenerator
	weather     *tools.GetWeather
}

// NewTurnService creates a TurnService.
func NewTurnService(config *TurnServiceConfig) *TurnService {
	weather := config.Weather
	if weather == nil {
		weather = tools.NewGetWeather()
	}
	return &TurnService{
		logger:      config.Logger,
		chats:       config.Chats,
		messages:    config.Messages,
		streams:     config.Streams,
		documents:   config.Documents,
		suggestions: config.Suggestions,
		providers:   config.Providers,
		registry:    config.Registry,
		catalog:     config.Catalog,
		titles:      config.Titles,
		weather:     weather,
	}
}

// StreamTurn validates and prepares a turn, then starts the generation in a
// background goroutine. The returned handle is already registered as the
// chat's active stream; the generation outlives the request context so a
// disconnected client can resume it.
func (s *TurnService) StreamTurn(ctx context.Context, req *TurnRequest) (*StreamHandle, error) {
	provider, err := s.providers.ForModel(req.Model)
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported model: %s", req.Model))
	}

	if req.Message == nil && !req.Replay() {
		return nil, domain.NewValidationError("request carries neither a message nor a replay transcript")
	}

	if req.Message != nil && req.Message.Role == models.RoleUser {
		count, err := s.messages.CountUserMessagesSince(ctx, req.Principal.UserID, time.Now().UTC().Add(-24*time.Hour))
		if err != nil {
			return nil, err
		}
		if count >= maxMessagesPerDay {
			return nil, domain.NewRateLimitError("you have exceeded your maximum number of messages for the day")
		}
	}

	generateTitle := false
	chat, err := s.chats.GetChat(ctx, req.ChatID)
	switch {
	case err == nil:
		if chat.UserID != req.Principal.UserID {
			return nil, domain.NewForbiddenError("chat belongs to another user")
		}

	case errors.Is(err, domain.ErrNotFound):
		if req.Message == nil || req.Message.Role != models.RoleUser {
			return nil, domain.NewValidationError("a new chat must start with a user message")
		}
		chat = &models.Chat{
			ID:         req.ChatID,
			Title:      models.PlaceholderTitle,
			UserID:     req.Principal.UserID,
			Visibility: req.Visibility,
		}
		created, saveErr := s.chats.SaveChat(ctx, chat)
		if saveErr != nil {
			return nil, saveErr
		}
		// On a lost race the concurrent turn owns title generation.
		generateTitle = created

	default:
		return nil, err
	}

	var history []models.Message
	if req.Replay() {
		history = req.Messages
	} else {
		dbMessages, err := s.messages.GetMessagesByChat(ctx, req.ChatID)
		if err != nil {
			return nil, err
		}
		history = append(dbMessages, *req.Message)
	}

	if req.Message != nil && req.Message.Role == models.RoleUser {
		userMsg := *req.Message
		userMsg.ChatID = req.ChatID
		if err := s.messages.SaveMessages(ctx, []models.Message{userMsg}); err != nil {
			return nil, err
		}
	}

	streamID := uuid.NewString()
	if err := s.streams.CreateStreamMarker(ctx, streamID, req.ChatID); err != nil {
		return nil, err
	}

	observability.IncTurn(req.Model)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	handle := NewStreamHandle(streamID, req.ChatID, cancel)
	s.registry.Register(req.ChatID, handle)

	go s.run(runCtx, handle, provider, req, history, generateTitle)

	return handle, nil
}

// run drives one generation to completion. It owns the handle: every exit
// path finishes the stream and marks it completed in the registry.
func (s *TurnService) run(ctx context.Context, handle *StreamHandle, provider domainllm.Provider, req *TurnRequest, history []models.Message, generateTitle bool) {
	defer func() {
		handle.Finish()
		s.registry.MarkCompleted(req.ChatID)
	}()

	if generateTitle {
		go s.generateTitle(ctx, handle, req)
	}

	reasoning := s.catalog.IsReasoningModel(req.Model)

	registry := s.buildTools(provider, req)

	var defs []domainllm.ToolDefinition
	var thinking *domainllm.ThinkingConfig
	if reasoning {
		thinking = &domainllm.ThinkingConfig{BudgetTokens: thinkingBudgetTokens}
	} else {
		defs = registry.Definitions()
	}

	if req.Replay() {
		if err := s.resolvePendingTools(ctx, handle, registry, history); err != nil {
			s.logger.Error("tool approval replay failed", "error", err, "chat_id", req.ChatID)
			handle.Publish(domainllm.ErrorChunk(errorNotice))
			return
		}
	}

	convo := convertHistory(history)

	var parts models.PartList
	for round := 0; round < maxToolRounds; round++ {
		genReq := &domainllm.GenerateRequest{
			Model:    s.catalog.UpstreamID(req.Model),
			System:   systemPrompt(reasoning),
			Messages: convo,
			Tools:    defs,
			Thinking: thinking,
		}

		events, err := provider.StreamResponse(ctx, genReq)
		if err != nil {
			s.logger.Error("provider call failed", "error", err, "chat_id", req.ChatID, "model", req.Model)
			handle.Publish(domainllm.ErrorChunk(errorNotice))
			return
		}

		var textBuf, reasoningBuf strings.Builder
		var toolCalls []domainllm.ToolCall
		var meta *domainllm.StreamMetadata

		for event := range events {
			switch {
			case event.Chunk != nil:
				handle.Publish(*event.Chunk)
				switch event.Chunk.Type {
				case domainllm.ChunkTextDelta:
					textBuf.WriteString(event.Chunk.Delta)
				case domainllm.ChunkReasoningDelta:
					reasoningBuf.WriteString(event.Chunk.Delta)
				}

			case event.ToolCall != nil:
				handle.Publish(domainllm.Chunk{
					Type:       domainllm.ChunkToolCall,
					ToolCallID: event.ToolCall.ID,
					ToolName:   event.ToolCall.Name,
					Input:      event.ToolCall.Input,
				})
				toolCalls = append(toolCalls, *event.ToolCall)

			case event.Metadata != nil:
				meta = event.Metadata

			case event.Error != nil:
				s.logger.Error("provider stream failed", "error", event.Error, "chat_id", req.ChatID, "model", req.Model)
				handle.Publish(domainllm.ErrorChunk(errorNotice))
				return
			}
		}

		var roundBlocks []domainllm.ContentBlock
		if reasoningBuf.Len() > 0 {
			parts = append(parts, models.MessagePart{Type: models.PartTypeReasoning, Text: reasoningBuf.String()})
		}
		if textBuf.Len() > 0 {
			parts = append(parts, models.MessagePart{Type: models.PartTypeText, Text: textBuf.String()})
			roundBlocks = append(roundBlocks, domainllm.ContentBlock{
				Type: domainllm.BlockText,
				Text: textBuf.String(),
			})
		}

		if len(toolCalls) == 0 || meta == nil || meta.StopReason != "tool_use" {
			break
		}

		var resultBlocks []domainllm.ContentBlock
		for _, call := range toolCalls {
			roundBlocks = append(roundBlocks, domainllm.ContentBlock{
				Type:      domainllm.BlockToolUse,
				ToolUseID: call.ID,
				ToolName:  call.Name,
				Input:     call.Input,
			})

			output := registry.Execute(ctx, call)
			handle.Publish(domainllm.Chunk{
				Type:       domainllm.ChunkToolResult,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Output:     output,
			})

			parts = append(parts, models.MessagePart{
				Type:       models.ToolPartPrefix + call.Name,
				ToolCallID: call.ID,
				State:      models.ToolStateOutputAvailable,
				Input:      call.Input,
				Output:     output,
			})
			resultBlocks = append(resultBlocks, domainllm.ContentBlock{
				Type:      domainllm.BlockToolResult,
				ToolUseID: call.ID,
				Output:    output,
			})
		}

		convo = append(convo,
			domainllm.Message{Role: models.RoleAssistant, Content: roundBlocks},
			domainllm.Message{Role: models.RoleUser, Content: resultBlocks},
		)
	}

	if len(parts) > 0 {
		assistant := models.Message{
			ID:          uuid.NewString(),
			ChatID:      req.ChatID,
			Role:        models.RoleAssistant,
			Parts:       parts,
			Attachments: models.AttachmentList{},
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.messages.SaveMessages(ctx, []models.Message{assistant}); err != nil {
			s.logger.Error("failed to persist assistant message", "error", err, "chat_id", req.ChatID)
			handle.Publish(domainllm.ErrorChunk(errorNotice))
			return
		}
	}

	handle.Publish(domainllm.Chunk{Type: domainllm.ChunkFinish})
}

// generateTitle resolves the chat title in parallel with the main turn and
// pushes it into the stream as a side-channel chunk. Ordering relative to
// content chunks is not guaranteed.
func (s *TurnService) generateTitle(ctx context.Context, handle *StreamHandle, req *TurnRequest) {
	title, err := s.titles.Generate(ctx, req.Message)
	if err != nil {
		s.logger.Warn("title generation failed", "error", err, "chat_id", req.ChatID)
		return
	}
	if err := s.chats.UpdateChatTitle(ctx, req.ChatID, title); err != nil {
		s.logger.Warn("failed to store chat title", "error", err, "chat_id", req.ChatID)
		return
	}
	handle.Publish(domainllm.ChatTitle(title))
}

// buildTools assembles the per-turn tool registry. Document tools are bound
// to the acting user and the turn's provider.
func (s *TurnService) buildTools(provider domainllm.Provider, req *TurnRequest) *tools.Registry {
	generate := func(ctx context.Context, system, prompt string) (string, error) {
		return provider.GenerateText(ctx, &domainllm.GenerateRequest{
			Model:  s.catalog.UpstreamID(req.Model),
			System: system,
			Messages: []domainllm.Message{
				{
					Role:    models.RoleUser,
					Content: []domainllm.ContentBlock{{Type: domainllm.BlockText, Text: prompt}},
				},
			},
		})
	}

	registry := tools.NewRegistry()
	registry.Register(s.weather)
	registry.Register(tools.NewCreateDocument(s.documents, generate, req.Principal.UserID))
	registry.Register(tools.NewUpdateDocument(s.documents, generate, req.Principal.UserID))
	registry.Register(tools.NewRequestSuggestions(s.documents, s.suggestions, generate, req.Principal.UserID))
	return registry
}

// resolvePendingTools executes approved tool calls carried by the replay
// transcript: tool parts still waiting for output get executed, their parts
// are filled in, and the owning message is updated in place when it already
// exists.
func (s *TurnService) resolvePendingTools(ctx context.Context, handle *StreamHandle, registry *tools.Registry, history []models.Message) error {
	if registry == nil {
		return nil
	}

	for i := range history {
		msg := &history[i]
		if msg.Role != models.RoleAssistant {
			continue
		}

		resolved := false
		for j := range msg.Parts {
			part := &msg.Parts[j]
			if !part.IsToolPart() || part.State != models.ToolStateInputAvailable {
				continue
			}

			name := strings.TrimPrefix(part.Type, models.ToolPartPrefix)
			output := registry.Execute(ctx, domainllm.ToolCall{
				ID:    part.ToolCallID,
				Name:  name,
				Input: part.Input,
			})

			handle.Publish(domainllm.Chunk{
				Type:       domainllm.ChunkToolResult,
				ToolCallID: part.ToolCallID,
				ToolName:   name,
				Output:     output,
			})

			part.Output = output
			part.State = models.ToolStateOutputAvailable
			resolved = true
		}

		if !resolved {
			continue
		}

		err := s.messages.UpdateMessageParts(ctx, msg.ID, msg.Parts)
		if errors.Is(err, domain.ErrNotFound) {
			// Client-side message the server never saw; insert it.
			err = s.messages.SaveMessages(ctx, []models.Message{*msg})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// convertHistory maps stored messages to provider messages. Reasoning parts
// are not resubmitted. Tool parts expand into a tool_use block on the
// assistant message and a tool_result block on a synthetic user message
// right after it.
func convertHistory(history []models.Message) []domainllm.Message {
	convo := make([]domainllm.Message, 0, len(history))

	for _, msg := range history {
		var blocks []domainllm.ContentBlock
		var results []domainllm.ContentBlock

		for _, part := range msg.Parts {
			switch {
			case part.Type == models.PartTypeText:
				if part.Text != "" {
					blocks = append(blocks, domainllm.ContentBlock{
						Type: domainllm.BlockText,
						Text: part.Text,
					})
				}

			case part.IsToolPart():
				blocks = append(blocks, domainllm.ContentBlock{
					Type:      domainllm.BlockToolUse,
					ToolUseID: part.ToolCallID,
					ToolName:  strings.TrimPrefix(part.Type, models.ToolPartPrefix),
					Input:     part.Input,
				})
				if part.State == models.ToolStateOutputAvailable {
					results = append(results, domainllm.ContentBlock{
						Type:      domainllm.BlockToolResult,
						ToolUseID: part.ToolCallID,
						Output:    part.Output,
					})
				}
			}
		}

		for _, att := range msg.Attachments {
			blocks = append(blocks, domainllm.ContentBlock{
				Type: domainllm.BlockText,
				Text: fmt.Sprintf("[attachment: %s (%s) at %s]", att.Name, att.ContentType, att.URL),
			})
		}

		if len(blocks) == 0 {
			continue
		}

		convo = append(convo, domainllm.Message{Role: msg.Role, Content: blocks})
		if len(results) > 0 {
			convo = append(convo, domainllm.Message{Role: models.RoleUser, Content: results})
		}
	}

	return convo
}
