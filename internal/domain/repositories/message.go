package repositories

import (
	"context"
	"time"

	"skiff/internal/domain/models"
)

// MessageRepository manages chat transcripts.
type MessageRepository interface {
	// SaveMessages inserts the batch inside a single transaction.
	SaveMessages(ctx context.Context, messages []models.Message) error

	// GetMessagesByChat returns the chat's messages ascending by creation time.
	GetMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error)

	// GetMessage retrieves a message by ID, or ErrNotFound.
	GetMessage(ctx context.Context, id string) (*models.Message, error)

	// UpdateMessageParts replaces the parts of an existing message in place.
	// Used only by the tool-approval replay flow.
	UpdateMessageParts(ctx context.Context, id string, parts models.PartList) error

	// DeleteMessagesAfter removes the chat's messages with createdAt >= ts
	// along with their votes, returning the number of messages removed.
	DeleteMessagesAfter(ctx context.Context, chatID string, ts time.Time) (int64, error)

	// CountUserMessagesSince counts user-role messages across the user's
	// chats created at or after the cutoff.
	CountUserMessagesSince(ctx context.Context, userID string, since time.Time) (int, error)
}
