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

// DocumentRepository implements repositories.DocumentRepository using SQLite.
// Documents version by (id, created_at): each save appends a row, never
// overwrites one.
type DocumentRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &DocumentRepository{
		db:     config.DB,
		logger: config.Logger,
	}
}

// SaveDocument appends a new version row
func (r *DocumentRepository) SaveDocument(ctx context.Context, doc *models.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO documents (id, created_at, title, content, kind, user_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.CreatedAt.UTC(), doc.Title, doc.Content, doc.Kind, doc.UserID)
	if err != nil {
		r.logger.Error("save document", "error", err, "document_id", doc.ID)
		return fmt.Errorf("failed to save document: %w", domain.ErrDatabase)
	}
	return nil
}

// GetDocumentVersions returns every version ascending by creation time
func (r *DocumentRepository) GetDocumentVersions(ctx context.Context, id string) ([]models.Document, error) {
	var docs []models.Document
	executor := GetExecutor(ctx, r.db)
	err := executor.SelectContext(ctx, &docs, `
		SELECT id, created_at, title, content, kind, user_id FROM documents
		WHERE id = ?
		ORDER BY created_at ASC
	`, id)
	if err != nil {
		r.logger.Error("get document versions", "error", err, "document_id", id)
		return nil, fmt.Errorf("failed to get documents by id: %w", domain.ErrDatabase)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return docs, nil
}

// GetLatestDocument returns the newest version
func (r *DocumentRepository) GetLatestDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &doc, `
		SELECT id, created_at, title, content, kind, user_id FROM documents
		WHERE id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, id)
	if err != nil {
		if IsNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		r.logger.Error("get latest document", "error", err, "document_id", id)
		return nil, fmt.Errorf("failed to get document by id: %w", domain.ErrDatabase)
	}
	return &doc, nil
}

// DeleteDocumentVersionsAfter removes versions created strictly after ts,
// suggestions first, and returns the versions it removed.
func (r *DocumentRepository) DeleteDocumentVersionsAfter(ctx context.Context, id string, ts time.Time) ([]models.Document, error) {
	var removed []models.Document

	err := execTx(ctx, r.db, func(txCtx context.Context) error {
		executor := GetExecutor(txCtx, r.db)

		err := executor.SelectContext(txCtx, &removed, `
			SELECT id, created_at, title, content, kind, user_id FROM documents
			WHERE id = ? AND created_at > ?
			ORDER BY created_at ASC
		`, id, ts.UTC())
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}

		if _, err := executor.ExecContext(txCtx, `
			DELETE FROM suggestions WHERE document_id = ? AND document_created_at > ?
		`, id, ts.UTC()); err != nil {
			return err
		}

		_, err = executor.ExecContext(txCtx, `
			DELETE FROM documents WHERE id = ? AND created_at > ?
		`, id, ts.UTC())
		return err
	})
	if err != nil {
		r.logger.Error("delete document versions after", "error", err, "document_id", id)
		return nil, fmt.Errorf("failed to delete documents by id after timestamp: %w", domain.ErrDatabase)
	}

	if removed == nil {
		removed = []models.Document{}
	}
	return removed, nil
}
