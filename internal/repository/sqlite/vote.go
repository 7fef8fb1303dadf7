package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"skiff/internal/domain"
	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
)

// VoteRepository implements repositories.VoteRepository using SQLite.
type VoteRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(config *RepositoryConfig) repositories.VoteRepository {
	return &VoteRepository{
		db:     config.DB,
		logger: config.Logger,
	}
}

// VoteMessage records a vote. A single upsert keeps insert and overwrite
// atomic, so concurrent votes on the same message cannot conflict.
func (r *VoteRepository) VoteMessage(ctx context.Context, chatID, messageID string, upvoted bool) error {
	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO votes (chat_id, message_id, is_upvoted)
		VALUES (?, ?, ?)
		ON CONFLICT (chat_id, message_id) DO UPDATE SET is_upvoted = excluded.is_upvoted
	`, chatID, messageID, upvoted)
	if err != nil {
		r.logger.Error("vote message", "error", err, "chat_id", chatID, "message_id", messageID)
		return fmt.Errorf("failed to vote message: %w", domain.ErrDatabase)
	}
	return nil
}

// GetVotesByChat returns all votes in the chat
func (r *VoteRepository) GetVotesByChat(ctx context.Context, chatID string) ([]models.Vote, error) {
	var votes []models.Vote
	executor := GetExecutor(ctx, r.db)
	err := executor.SelectContext(ctx, &votes, `
		SELECT chat_id, message_id, is_upvoted FROM votes WHERE chat_id = ?
	`, chatID)
	if err != nil {
		r.logger.Error("get votes by chat", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get votes by chat id: %w", domain.ErrDatabase)
	}
	if votes == nil {
		votes = []models.Vote{}
	}
	return votes, nil
}
