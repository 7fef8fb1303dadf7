package repositories

import (
	"context"

	"skiff/internal/domain/models"
)

// ChatPage describes one cursor-paginated history request. At most one of
// StartingAfter / EndingBefore may be set; both reference an anchor chat ID
// whose creation time bounds the page exclusively.
type ChatPage struct {
	Limit         int
	StartingAfter *string
	EndingBefore  *string
}

// ChatHistory is one page of a user's chats, newest first.
type ChatHistory struct {
	Chats   []models.Chat `json:"chats"`
	HasMore bool          `json:"hasMore"`
}

// ChatRepository manages chat rows and their delete cascades.
type ChatRepository interface {
	// SaveChat inserts the chat if no chat with its ID exists. The insert is
	// a single conditional atomic statement; created reports whether a row
	// was written.
	SaveChat(ctx context.Context, chat *models.Chat) (created bool, err error)

	// GetChat retrieves a chat by ID, or ErrNotFound.
	GetChat(ctx context.Context, id string) (*models.Chat, error)

	// ListChatsForUser pages through a user's chats by descending creation
	// time, fetching limit+1 rows to compute HasMore.
	ListChatsForUser(ctx context.Context, userID string, page ChatPage) (*ChatHistory, error)

	// UpdateChatTitle replaces the chat's title.
	UpdateChatTitle(ctx context.Context, chatID, title string) error

	// UpdateChatVisibility sets the chat's visibility.
	UpdateChatVisibility(ctx context.Context, chatID, visibility string) error

	// DeleteChat removes the chat and cascades to its votes, messages and
	// stream markers, returning the deleted row.
	DeleteChat(ctx context.Context, id string) (*models.Chat, error)

	// DeleteAllChatsForUser removes every chat the user owns, with cascades,
	// and returns the number of chats deleted.
	DeleteAllChatsForUser(ctx context.Context, userID string) (int64, error)
}
