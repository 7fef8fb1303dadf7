package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	domainllm "skiff/internal/domain/services/llm"
)

// toolBuild accumulates one in-flight tool_use block from the event stream.
type toolBuild struct {
	id    string
	name  string
	input strings.Builder
}

// StreamResponse generates a streaming response from Claude.
// Returns a channel that emits StreamEvent as deltas arrive from the API.
func (p *Provider) StreamResponse(ctx context.Context, req *domainllm.GenerateRequest) (<-chan domainllm.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by Anthropic provider", req.Model)
	}

	apiParams, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	// Buffered to prevent blocking the SDK reader on slow consumers.
	eventChan := make(chan domainllm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		stream := p.client.Messages.NewStreaming(ctx, apiParams)

		// Accumulator for final message metadata
		message := anthropic.Message{}

		// In-flight tool_use blocks, keyed by block index
		building := make(map[int]*toolBuild)

		send := func(event domainllm.StreamEvent) bool {
			select {
			case <-ctx.Done():
				return false
			case eventChan <- event:
				return true
			}
		}

		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				send(domainllm.StreamEvent{
					Error: fmt.Errorf("failed to accumulate message: %w", err),
				})
				return
			}

			switch e := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				if e.ContentBlock.Type == "tool_use" {
					building[int(e.Index)] = &toolBuild{
						id:   e.ContentBlock.ID,
						name: e.ContentBlock.Name,
					}
				}

			case anthropic.ContentBlockDeltaEvent:
				switch e.Delta.Type {
				case "text_delta":
					chunk := domainllm.TextDelta(e.Delta.Text)
					if !send(domainllm.StreamEvent{Chunk: &chunk}) {
						return
					}

				case "thinking_delta":
					chunk := domainllm.ReasoningDelta(e.Delta.Thinking)
					if !send(domainllm.StreamEvent{Chunk: &chunk}) {
						return
					}

				case "input_json_delta":
					if build := building[int(e.Index)]; build != nil {
						build.input.WriteString(e.Delta.PartialJSON)
					}
				}

			case anthropic.ContentBlockStopEvent:
				build := building[int(e.Index)]
				if build == nil {
					continue
				}
				delete(building, int(e.Index))

				input := build.input.String()
				if input == "" {
					input = "{}"
				}
				toolCall := &domainllm.ToolCall{
					ID:    build.id,
					Name:  build.name,
					Input: json.RawMessage(input),
				}
				if !send(domainllm.StreamEvent{ToolCall: toolCall}) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			send(domainllm.StreamEvent{
				Error: fmt.Errorf("anthropic streaming error: %w", err),
			})
			return
		}

		send(domainllm.StreamEvent{
			Metadata: &domainllm.StreamMetadata{
				Model:        string(message.Model),
				InputTokens:  int(message.Usage.InputTokens),
				OutputTokens: int(message.Usage.OutputTokens),
				StopReason:   string(message.StopReason),
			},
		})
	}()

	return eventChan, nil
}
