package repositories

import (
	"context"
	"time"

	"skiff/internal/domain/models"
)

// DocumentRepository manages versioned documents.
type DocumentRepository interface {
	// SaveDocument inserts a new version row.
	SaveDocument(ctx context.Context, doc *models.Document) error

	// GetDocumentVersions returns every version of the document ascending by
	// creation time, or ErrNotFound when none exist.
	GetDocumentVersions(ctx context.Context, id string) ([]models.Document, error)

	// GetLatestDocument returns the version with the greatest createdAt.
	GetLatestDocument(ctx context.Context, id string) (*models.Document, error)

	// DeleteDocumentVersionsAfter removes versions with createdAt > ts and the
	// suggestions tied to them, returning the deleted versions.
	DeleteDocumentVersionsAfter(ctx context.Context, id string, ts time.Time) ([]models.Document, error)
}
