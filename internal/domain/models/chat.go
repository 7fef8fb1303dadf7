package models

import (
	"time"
)

// Visibility values for a chat.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// PlaceholderTitle is the title a chat carries until async title generation
// resolves after the first turn.
const PlaceholderTitle = "New chat"

// Chat is a conversation owned by a user.
type Chat struct {
	ID         string    `json:"id" db:"id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	Title      string    `json:"title" db:"title"`
	UserID     string    `json:"userId" db:"user_id"`
	Visibility string    `json:"visibility" db:"visibility"`
}
