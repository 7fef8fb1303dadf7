package models

import (
	"time"
)

// Suggestion is a proposed edit tied to a specific document version.
type Suggestion struct {
	ID                string    `json:"id" db:"id"`
	DocumentID        string    `json:"documentId" db:"document_id"`
	DocumentCreatedAt time.Time `json:"documentCreatedAt" db:"document_created_at"`
	OriginalText      string    `json:"originalText" db:"original_text"`
	SuggestedText     string    `json:"suggestedText" db:"suggested_text"`
	Description       *string   `json:"description" db:"description"`
	IsResolved        bool      `json:"isResolved" db:"is_resolved"`
	UserID            string    `json:"userId" db:"user_id"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}
