package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"skiff/internal/domain"
	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
)

// SuggestionRepository implements repositories.SuggestionRepository using SQLite.
type SuggestionRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSuggestionRepository creates a new SuggestionRepository
func NewSuggestionRepository(config *RepositoryConfig) repositories.SuggestionRepository {
	return &SuggestionRepository{
		db:     config.DB,
		logger: config.Logger,
	}
}

// SaveSuggestions inserts the batch in one transaction
func (r *SuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []models.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	err := execTx(ctx, r.db, func(txCtx context.Context) error {
		executor := GetExecutor(txCtx, r.db)
		for i := range suggestions {
			s := &suggestions[i]
			if s.CreatedAt.IsZero() {
				s.CreatedAt = time.Now().UTC()
			}
			_, err := executor.ExecContext(txCtx, `
				INSERT INTO suggestions
					(id, document_id, document_created_at, original_text, suggested_text, description, is_resolved, user_id, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, s.ID, s.DocumentID, s.DocumentCreatedAt.UTC(), s.OriginalText, s.SuggestedText,
				s.Description, s.IsResolved, s.UserID, s.CreatedAt.UTC())
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("save suggestions", "error", err)
		return fmt.Errorf("failed to save suggestions: %w", domain.ErrDatabase)
	}
	return nil
}

// GetSuggestionsByDocument returns all suggestions for the document ID
func (r *SuggestionRepository) GetSuggestionsByDocument(ctx context.Context, documentID string) ([]models.Suggestion, error) {
	var suggestions []models.Suggestion
	executor := GetExecutor(ctx, r.db)
	err := executor.SelectContext(ctx, &suggestions, `
		SELECT id, document_id, document_created_at, original_text, suggested_text,
		       description, is_resolved, user_id, created_at
		FROM suggestions
		WHERE document_id = ?
	`, documentID)
	if err != nil {
		r.logger.Error("get suggestions by document", "error", err, "document_id", documentID)
		return nil, fmt.Errorf("failed to get suggestions by document id: %w", domain.ErrDatabase)
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	return suggestions, nil
}
