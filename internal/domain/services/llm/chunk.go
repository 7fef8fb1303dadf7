package llm

import "encoding/json"

// Chunk kinds. Every provider adapter reduces its wire format to this set, so
// the orchestrator and the SSE layer never see provider-specific events.
const (
	ChunkTextDelta      = "text-delta"
	ChunkReasoningDelta = "reasoning-delta"
	ChunkToolCall       = "tool-call"
	ChunkToolResult     = "tool-result"
	ChunkChatTitle      = "data-chat-title"
	ChunkFinish         = "finish"
	ChunkError          = "error"
)

// Chunk is one increment of generation output. Which fields are meaningful
// depends on Type; the rest stay zero and are omitted on the wire.
type Chunk struct {
	Type string `json:"type"`

	// Delta carries incremental text for text-delta and reasoning-delta.
	Delta string `json:"delta,omitempty"`

	// Tool invocation fields for tool-call and tool-result.
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`

	// Title carries the side-channel chat title for data-chat-title.
	Title string `json:"title,omitempty"`

	// ErrorText carries the client-safe notice for error chunks.
	ErrorText string `json:"errorText,omitempty"`
}

// TextDelta builds a text increment chunk.
func TextDelta(text string) Chunk {
	return Chunk{Type: ChunkTextDelta, Delta: text}
}

// ReasoningDelta builds a reasoning increment chunk.
func ReasoningDelta(text string) Chunk {
	return Chunk{Type: ChunkReasoningDelta, Delta: text}
}

// ChatTitle builds the side-channel title notification chunk.
func ChatTitle(title string) Chunk {
	return Chunk{Type: ChunkChatTitle, Title: title}
}

// ErrorChunk builds an error notice chunk.
func ErrorChunk(text string) Chunk {
	return Chunk{Type: ChunkError, ErrorText: text}
}
