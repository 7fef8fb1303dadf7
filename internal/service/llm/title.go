package llm

import (
	"context"
	"fmt"
	"strings"

	"skiff/internal/domain/models"
	domainllm "skiff/internal/domain/services/llm"
)

const titleSystemPrompt = `Generate a short title summarizing the user's first message. Use at most 80 characters. Do not use quotes or colons. Respond with the title only.`

const maxTitleLength = 80

// TitleGenerator produces chat titles from the first user message using a
// small, fast model.
type TitleGenerator struct {
	providers *ProviderRegistry
	model     string
}

// NewTitleGenerator creates a title generator bound to the given model.
func NewTitleGenerator(providers *ProviderRegistry, model string) *TitleGenerator {
	return &TitleGenerator{
		providers: providers,
		model:     model,
	}
}

// Generate returns a title for a chat that starts with the given message.
func (g *TitleGenerator) Generate(ctx context.Context, message *models.Message) (string, error) {
	provider, err := g.providers.ForModel(g.model)
	if err != nil {
		return "", fmt.Errorf("title model unavailable: %w", err)
	}

	prompt := message.PlainText()
	if prompt == "" {
		prompt = "New conversation"
	}

	raw, err := provider.GenerateText(ctx, &domainllm.GenerateRequest{
		Model:     g.model,
		System:    titleSystemPrompt,
		MaxTokens: 64,
		Messages: []domainllm.Message{
			{
				Role:    models.RoleUser,
				Content: []domainllm.ContentBlock{{Type: domainllm.BlockText, Text: prompt}},
			},
		},
	})
	if err != nil {
		return "", err
	}

	title := sanitizeTitle(raw)
	if title == "" {
		return "", fmt.Errorf("title model returned empty output")
	}
	return title, nil
}

// sanitizeTitle flattens the model output to a single trimmed line within
// the length limit.
func sanitizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if idx := strings.IndexAny(title, "\r\n"); idx >= 0 {
		title = title[:idx]
	}
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)
	if len(title) > maxTitleLength {
		title = strings.TrimSpace(title[:maxTitleLength])
	}
	return title
}
