package repositories

import (
	"context"

	"skiff/internal/domain/models"
)

// StreamRepository records generation stream markers.
type StreamRepository interface {
	// CreateStreamMarker records that a stream was opened for the chat.
	CreateStreamMarker(ctx context.Context, streamID, chatID string) error

	// GetStreamIDsByChat returns the chat's stream IDs ascending by creation
	// time, oldest first.
	GetStreamIDsByChat(ctx context.Context, chatID string) ([]string, error)

	// GetStreamMarkersByChat returns the chat's stream markers, oldest first.
	GetStreamMarkersByChat(ctx context.Context, chatID string) ([]models.StreamMarker, error)
}
