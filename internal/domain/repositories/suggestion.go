package repositories

import (
	"context"

	"skiff/internal/domain/models"
)

// SuggestionRepository manages document edit suggestions.
type SuggestionRepository interface {
	// SaveSuggestions inserts the batch inside a single transaction.
	SaveSuggestions(ctx context.Context, suggestions []models.Suggestion) error

	// GetSuggestionsByDocument returns all suggestions for the document ID.
	GetSuggestionsByDocument(ctx context.Context, documentID string) ([]models.Suggestion, error)
}
