package repositories

import (
	"context"

	"skiff/internal/domain/models"
)

// VoteRepository manages message votes.
type VoteRepository interface {
	// VoteMessage records a vote as a single atomic upsert: inserting when no
	// vote exists for (chat, message), overwriting otherwise.
	VoteMessage(ctx context.Context, chatID, messageID string, upvoted bool) error

	// GetVotesByChat returns all votes in the chat.
	GetVotesByChat(ctx context.Context, chatID string) ([]models.Vote, error)
}
