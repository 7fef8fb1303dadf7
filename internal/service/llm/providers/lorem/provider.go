// Package lorem provides a mock model backend that generates lorem ipsum
// text. Used for development and tests without requiring real API keys.
package lorem

import (
	"context"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	domainllm "skiff/internal/domain/services/llm"
)

// Provider is a fake model backend. Model IDs start with "lorem-".
type Provider struct {
	generator *loremgen.Lorem

	// delay between streamed words, zero in tests
	wordDelay time.Duration
}

// NewProvider creates a lorem provider with a realistic streaming delay.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
		wordDelay: 20 * time.Millisecond,
	}
}

// NewInstantProvider creates a lorem provider that streams without delays.
func NewInstantProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// GenerateText returns a short lorem ipsum sentence.
func (p *Provider) GenerateText(ctx context.Context, req *domainllm.GenerateRequest) (string, error) {
	if !p.SupportsModel(req.Model) {
		return "", fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}
	return p.generator.Sentence(3, 8), nil
}

// StreamResponse streams a few sentences of lorem ipsum word by word.
func (p *Provider) StreamResponse(ctx context.Context, req *domainllm.GenerateRequest) (<-chan domainllm.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	text := p.generator.Paragraph(2, 4)
	words := strings.Fields(text)

	eventChan := make(chan domainllm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		outputTokens := 0
		for i, word := range words {
			if p.wordDelay > 0 {
				select {
				case <-time.After(p.wordDelay):
				case <-ctx.Done():
					eventChan <- domainllm.StreamEvent{Error: ctx.Err()}
					return
				}
			}

			delta := word
			if i < len(words)-1 {
				delta += " "
			}
			chunk := domainllm.TextDelta(delta)
			select {
			case <-ctx.Done():
				eventChan <- domainllm.StreamEvent{Error: ctx.Err()}
				return
			case eventChan <- domainllm.StreamEvent{Chunk: &chunk}:
			}
			outputTokens++
		}

		eventChan <- domainllm.StreamEvent{
			Metadata: &domainllm.StreamMetadata{
				Model:        req.Model,
				InputTokens:  len(req.Messages),
				OutputTokens: outputTokens,
				StopReason:   "end_turn",
			},
		}
	}()

	return eventChan, nil
}
