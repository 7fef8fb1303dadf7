package llm

import (
	"context"
	"encoding/json"
)

// Provider is the contract every model backend implements. Adapters reduce
// their provider's wire format to the neutral Chunk stream.
type Provider interface {
	// StreamResponse starts a generation and returns a channel of stream
	// events. The channel is closed when the generation finishes, fails, or
	// the context is cancelled. A failed generation delivers exactly one
	// event with Error set before the close.
	StreamResponse(ctx context.Context, req *GenerateRequest) (<-chan StreamEvent, error)

	// GenerateText runs a non-streaming completion and returns the full
	// text. Used for title generation.
	GenerateText(ctx context.Context, req *GenerateRequest) (string, error)

	// Name returns the provider name (e.g., "anthropic", "lorem")
	Name() string

	// SupportsModel reports whether the provider serves the given model ID.
	SupportsModel(model string) bool
}

// GenerateRequest contains the parameters for one model call.
type GenerateRequest struct {
	// Model is the model identifier (e.g., "claude-sonnet-4-5")
	Model string

	// System is the system prompt, empty for none.
	System string

	// Messages is the conversation history, oldest first.
	Messages []Message

	// Tools the model may call this round. Empty disables tool use.
	Tools []ToolDefinition

	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int

	// Thinking enables extended reasoning with the given token budget.
	Thinking *ThinkingConfig
}

// ThinkingConfig turns on extended reasoning.
type ThinkingConfig struct {
	BudgetTokens int
}

// Message is one conversation entry sent to the provider.
type Message struct {
	// Role is either "user" or "assistant"
	Role string

	// Content is the ordered block list for this message.
	Content []ContentBlock
}

// Content block types.
const (
	BlockText       = "text"
	BlockThinking   = "thinking"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
	BlockImage      = "image"
)

// ContentBlock is one piece of a provider message.
type ContentBlock struct {
	Type string

	// Text for text and thinking blocks.
	Text string

	// Tool fields for tool_use and tool_result blocks.
	ToolUseID string
	ToolName  string
	Input     json.RawMessage
	Output    json.RawMessage

	// ImageURL references an uploaded file for image blocks.
	ImageURL string
}

// ToolDefinition describes one callable tool to the provider.
type ToolDefinition struct {
	Name        string
	Description string

	// InputSchema is the JSON Schema of the tool's arguments.
	InputSchema json.RawMessage
}

// ToolCall is a complete tool invocation decoded from the provider stream.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// StreamMetadata is the terminal summary of one provider call.
type StreamMetadata struct {
	Model        string
	InputTokens  int
	OutputTokens int

	// StopReason indicates why generation stopped (e.g., "end_turn",
	// "max_tokens", "tool_use").
	StopReason string
}

// StreamEvent is one item on a provider stream. Exactly one field is set.
type StreamEvent struct {
	// Chunk is an incremental output piece (text or reasoning delta).
	Chunk *Chunk

	// ToolCall is a fully-assembled tool invocation request.
	ToolCall *ToolCall

	// Metadata arrives once, after the last chunk of a successful call.
	Metadata *StreamMetadata

	// Error terminates the stream when the provider call fails.
	Error error
}
