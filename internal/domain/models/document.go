package models

import (
	"time"
)

// Document kinds.
const (
	DocumentKindText  = "text"
	DocumentKindCode  = "code"
	DocumentKindSheet = "sheet"
)

// Document is one version of an artifact. Identity is (id, createdAt): each
// save inserts a new row, and "the document" means the latest version.
type Document struct {
	ID        string    `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Title     string    `json:"title" db:"title"`
	Content   *string   `json:"content" db:"content"`
	Kind      string    `json:"kind" db:"kind"`
	UserID    string    `json:"userId" db:"user_id"`
}
