package models

import (
	"time"
)

// StreamMarker records that a generation stream was opened for a chat, so a
// reconnecting client can locate and resume in-flight output.
type StreamMarker struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chatId" db:"chat_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
