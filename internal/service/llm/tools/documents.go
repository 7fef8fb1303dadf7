package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
	domainllm "skiff/internal/domain/services/llm"
)

// TextGenerator produces a complete text completion. The turn service binds
// it to the active provider and a writing-oriented model.
type TextGenerator func(ctx context.Context, system, prompt string) (string, error)

// CreateDocument writes a brand-new document generated by the model.
type CreateDocument struct {
	documents repositories.DocumentRepository
	generate  TextGenerator
	userID    string
}

// NewCreateDocument creates the create_document tool bound to the acting user.
func NewCreateDocument(documents repositories.DocumentRepository, generate TextGenerator, userID string) *CreateDocument {
	return &CreateDocument{
		documents: documents,
		generate:  generate,
		userID:    userID,
	}
}

// Definition implements Tool.
func (t *CreateDocument) Definition() domainllm.ToolDefinition {
	return domainllm.ToolDefinition{
		Name:        "create_document",
		Description: "Create a document for writing or content creation activities. The document content is generated from the given title and kind.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {"type": "string", "description": "Title of the document"},
				"kind": {"type": "string", "enum": ["text", "code", "sheet"], "description": "Kind of document to create"}
			},
			"required": ["title", "kind"]
		}`),
	}
}

// Execute implements Tool.
func (t *CreateDocument) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var args struct {
		Title string `json:"title"`
		Kind  string `json:"kind"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid create_document input: %w", err)
	}
	if args.Title == "" {
		return nil, fmt.Errorf("create_document requires a title")
	}
	if args.Kind == "" {
		args.Kind = models.DocumentKindText
	}

	content, err := t.generate(ctx, documentSystemPrompt(args.Kind), args.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to generate document content: %w", err)
	}

	doc := &models.Document{
		ID:      uuid.NewString(),
		Title:   args.Title,
		Content: &content,
		Kind:    args.Kind,
		UserID:  t.userID,
	}
	if err := t.documents.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}

	return map[string]string{
		"id":      doc.ID,
		"title":   doc.Title,
		"kind":    doc.Kind,
		"content": "A document was created and is now visible to the user.",
	}, nil
}

// UpdateDocument appends a new version of an existing document.
type UpdateDocument struct {
	documents repositories.DocumentRepository
	generate  TextGenerator
	userID    string
}

// NewUpdateDocument creates the update_document tool bound to the acting user.
func NewUpdateDocument(documents repositories.DocumentRepository, generate TextGenerator, userID string) *UpdateDocument {
	return &UpdateDocument{
		documents: documents,
		generate:  generate,
		userID:    userID,
	}
}

// Definition implements Tool.
func (t *UpdateDocument) Definition() domainllm.ToolDefinition {
	return domainllm.ToolDefinition{
		Name:        "update_document",
		Description: "Update a document with the given description of changes.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "ID of the document to update"},
				"description": {"type": "string", "description": "Description of the changes to make"}
			},
			"required": ["id", "description"]
		}`),
	}
}

// Execute implements Tool.
func (t *UpdateDocument) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var args struct {
		ID          string `json:"id"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid update_document input: %w", err)
	}

	doc, err := t.documents.GetLatestDocument(ctx, args.ID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != t.userID {
		return nil, fmt.Errorf("document %s does not belong to the current user", args.ID)
	}

	current := ""
	if doc.Content != nil {
		current = *doc.Content
	}
	prompt := fmt.Sprintf("Current content:\n\n%s\n\nApply this change: %s", current, args.Description)

	content, err := t.generate(ctx, documentSystemPrompt(doc.Kind), prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate updated content: %w", err)
	}

	updated := &models.Document{
		ID:      doc.ID,
		Title:   doc.Title,
		Content: &content,
		Kind:    doc.Kind,
		UserID:  doc.UserID,
	}
	if err := t.documents.SaveDocument(ctx, updated); err != nil {
		return nil, err
	}

	return map[string]string{
		"id":      doc.ID,
		"title":   doc.Title,
		"kind":    doc.Kind,
		"content": "The document has been updated successfully.",
	}, nil
}

func documentSystemPrompt(kind string) string {
	switch kind {
	case models.DocumentKindCode:
		return "You are a code generator. Write self-contained, runnable code for the given request. Respond with the code only, no surrounding prose."
	case models.DocumentKindSheet:
		return "You are a spreadsheet generator. Respond with CSV data only: a header row followed by data rows."
	default:
		return "You are a writing assistant. Write well-structured markdown for the given topic. Respond with the document content only."
	}
}

// RequestSuggestions asks the model for edit suggestions on a document and
// stores them.
type RequestSuggestions struct {
	documents   repositories.DocumentRepository
	suggestions repositories.SuggestionRepository
	generate    TextGenerator
	userID      string
}

// NewRequestSuggestions creates the request_suggestions tool bound to the
// acting user.
func NewRequestSuggestions(documents repositories.DocumentRepository, suggestions repositories.SuggestionRepository, generate TextGenerator, userID string) *RequestSuggestions {
	return &RequestSuggestions{
		documents:   documents,
		suggestions: suggestions,
		generate:    generate,
		userID:      userID,
	}
}

// Definition implements Tool.
func (t *RequestSuggestions) Definition() domainllm.ToolDefinition {
	return domainllm.ToolDefinition{
		Name:        "request_suggestions",
		Description: "Request writing suggestions for an existing document.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"documentId": {"type": "string", "description": "ID of the document to request suggestions for"}
			},
			"required": ["documentId"]
		}`),
	}
}

// Execute implements Tool.
func (t *RequestSuggestions) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var args struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid request_suggestions input: %w", err)
	}

	doc, err := t.documents.GetLatestDocument(ctx, args.DocumentID)
	if err != nil {
		return nil, err
	}

	content := ""
	if doc.Content != nil {
		content = *doc.Content
	}

	system := `You are a writing assistant. Given a document, suggest improvements to its sentences. Respond with a JSON array only, where each element has the fields "originalText", "suggestedText" and "description". Suggest at most five improvements.`
	raw, err := t.generate(ctx, system, content)
	if err != nil {
		return nil, fmt.Errorf("failed to generate suggestions: %w", err)
	}

	parsed, err := parseSuggestionList(raw)
	if err != nil {
		return nil, err
	}

	batch := make([]models.Suggestion, 0, len(parsed))
	for _, s := range parsed {
		desc := s.Description
		batch = append(batch, models.Suggestion{
			ID:                uuid.NewString(),
			DocumentID:        doc.ID,
			DocumentCreatedAt: doc.CreatedAt,
			OriginalText:      s.OriginalText,
			SuggestedText:     s.SuggestedText,
			Description:       &desc,
			UserID:            t.userID,
		})
	}
	if err := t.suggestions.SaveSuggestions(ctx, batch); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":      doc.ID,
		"title":   doc.Title,
		"kind":    doc.Kind,
		"message": fmt.Sprintf("%d suggestions have been added to the document.", len(batch)),
	}, nil
}

type suggestionItem struct {
	OriginalText  string `json:"originalText"`
	SuggestedText string `json:"suggestedText"`
	Description   string `json:"description"`
}

// parseSuggestionList decodes the model's JSON array, tolerating prose or
// code fences around it.
func parseSuggestionList(raw string) ([]suggestionItem, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("model response contains no suggestion array")
	}

	var items []suggestionItem
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}
	return items, nil
}
