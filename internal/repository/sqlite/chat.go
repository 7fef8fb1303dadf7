package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"skiff/internal/domain"
	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
)

// ChatRepository implements repositories.ChatRepository using SQLite.
type ChatRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(config *RepositoryConfig) repositories.ChatRepository {
	return &ChatRepository{
		db:     config.DB,
		logger: config.Logger,
	}
}

// SaveChat inserts the chat unless a chat with its ID already exists.
// ON CONFLICT DO NOTHING makes the create-if-absent check a single atomic
// statement, so two concurrent first turns cannot double-insert.
func (r *ChatRepository) SaveChat(ctx context.Context, chat *models.Chat) (bool, error) {
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}
	if chat.Visibility == "" {
		chat.Visibility = models.VisibilityPrivate
	}

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `
		INSERT INTO chats (id, created_at, title, user_id, visibility)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, chat.ID, chat.CreatedAt.UTC(), chat.Title, chat.UserID, chat.Visibility)
	if err != nil {
		r.logger.Error("save chat", "error", err, "chat_id", chat.ID)
		return false, fmt.Errorf("failed to save chat: %w", domain.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("save chat rows affected", "error", err, "chat_id", chat.ID)
		return false, fmt.Errorf("failed to save chat: %w", domain.ErrDatabase)
	}

	return rows > 0, nil
}

// GetChat retrieves a chat by ID
func (r *ChatRepository) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	var chat models.Chat
	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &chat, `
		SELECT id, created_at, title, user_id, visibility FROM chats WHERE id = ?
	`, id)
	if err != nil {
		if IsNoRowsError(err) {
			return nil, fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
		}
		r.logger.Error("get chat", "error", err, "chat_id", id)
		return nil, fmt.Errorf("failed to get chat by id: %w", domain.ErrDatabase)
	}
	return &chat, nil
}

// ListChatsForUser pages through a user's chats, newest first. It fetches
// limit+1 rows and reports HasMore when the extra row came back. A cursor
// referencing a chat that does not exist fails with ErrNotFound.
func (r *ChatRepository) ListChatsForUser(ctx context.Context, userID string, page repositories.ChatPage) (*repositories.ChatHistory, error) {
	executor := GetExecutor(ctx, r.db)
	extendedLimit := page.Limit + 1

	var chats []models.Chat
	var err error

	switch {
	case page.StartingAfter != nil:
		anchor, anchorErr := r.GetChat(ctx, *page.StartingAfter)
		if anchorErr != nil {
			return nil, anchorErr
		}
		err = executor.SelectContext(ctx, &chats, `
			SELECT id, created_at, title, user_id, visibility FROM chats
			WHERE user_id = ? AND created_at > ?
			ORDER BY created_at DESC LIMIT ?
		`, userID, anchor.CreatedAt.UTC(), extendedLimit)

	case page.EndingBefore != nil:
		anchor, anchorErr := r.GetChat(ctx, *page.EndingBefore)
		if anchorErr != nil {
			return nil, anchorErr
		}
		err = executor.SelectContext(ctx, &chats, `
			SELECT id, created_at, title, user_id, visibility FROM chats
			WHERE user_id = ? AND created_at < ?
			ORDER BY created_at DESC LIMIT ?
		`, userID, anchor.CreatedAt.UTC(), extendedLimit)

	default:
		err = executor.SelectContext(ctx, &chats, `
			SELECT id, created_at, title, user_id, visibility FROM chats
			WHERE user_id = ?
			ORDER BY created_at DESC LIMIT ?
		`, userID, extendedLimit)
	}

	if err != nil {
		r.logger.Error("list chats", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get chats by user id: %w", domain.ErrDatabase)
	}

	hasMore := len(chats) > page.Limit
	if hasMore {
		chats = chats[:page.Limit]
	}
	if chats == nil {
		chats = []models.Chat{}
	}

	return &repositories.ChatHistory{Chats: chats, HasMore: hasMore}, nil
}

// UpdateChatTitle replaces the chat's title
func (r *ChatRepository) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, `UPDATE chats SET title = ? WHERE id = ?`, title, chatID)
	if err != nil {
		r.logger.Error("update chat title", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to update chat title: %w", domain.ErrDatabase)
	}
	return nil
}

// UpdateChatVisibility sets the chat's visibility
func (r *ChatRepository) UpdateChatVisibility(ctx context.Context, chatID, visibility string) error {
	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, `UPDATE chats SET visibility = ? WHERE id = ?`, visibility, chatID)
	if err != nil {
		r.logger.Error("update chat visibility", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to update chat visibility: %w", domain.ErrDatabase)
	}
	return nil
}

// DeleteChat removes the chat and everything hanging off it. The cascade
// (votes, messages, stream markers, then the chat itself) runs in one
// transaction so a failure cannot strand orphan rows.
func (r *ChatRepository) DeleteChat(ctx context.Context, id string) (*models.Chat, error) {
	chat, err := r.GetChat(ctx, id)
	if err != nil {
		return nil, err
	}

	err = execTx(ctx, r.db, func(txCtx context.Context) error {
		executor := GetExecutor(txCtx, r.db)
		if _, err := executor.ExecContext(txCtx, `DELETE FROM votes WHERE chat_id = ?`, id); err != nil {
			return err
		}
		if _, err := executor.ExecContext(txCtx, `DELETE FROM messages WHERE chat_id = ?`, id); err != nil {
			return err
		}
		if _, err := executor.ExecContext(txCtx, `DELETE FROM streams WHERE chat_id = ?`, id); err != nil {
			return err
		}
		if _, err := executor.ExecContext(txCtx, `DELETE FROM chats WHERE id = ?`, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		r.logger.Error("delete chat", "error", err, "chat_id", id)
		return nil, fmt.Errorf("failed to delete chat by id: %w", domain.ErrDatabase)
	}

	return chat, nil
}

// DeleteAllChatsForUser removes every chat the user owns, with cascades
func (r *ChatRepository) DeleteAllChatsForUser(ctx context.Context, userID string) (int64, error) {
	var deleted int64

	err := execTx(ctx, r.db, func(txCtx context.Context) error {
		executor := GetExecutor(txCtx, r.db)

		var chatIDs []string
		if err := executor.SelectContext(txCtx, &chatIDs, `SELECT id FROM chats WHERE user_id = ?`, userID); err != nil {
			return err
		}
		if len(chatIDs) == 0 {
			return nil
		}

		query, args, err := sqlx.In(`DELETE FROM votes WHERE chat_id IN (?)`, chatIDs)
		if err != nil {
			return err
		}
		if _, err := executor.ExecContext(txCtx, query, args...); err != nil {
			return err
		}

		query, args, err = sqlx.In(`DELETE FROM messages WHERE chat_id IN (?)`, chatIDs)
		if err != nil {
			return err
		}
		if _, err := executor.ExecContext(txCtx, query, args...); err != nil {
			return err
		}

		query, args, err = sqlx.In(`DELETE FROM streams WHERE chat_id IN (?)`, chatIDs)
		if err != nil {
			return err
		}
		if _, err := executor.ExecContext(txCtx, query, args...); err != nil {
			return err
		}

		result, err := executor.ExecContext(txCtx, `DELETE FROM chats WHERE user_id = ?`, userID)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		r.logger.Error("delete all chats", "error", err, "user_id", userID)
		return 0, fmt.Errorf("failed to delete all chats by user id: %w", domain.ErrDatabase)
	}

	return deleted, nil
}
