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

// MessageRepository implements repositories.MessageRepository using SQLite.
type MessageRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(config *RepositoryConfig) repositories.MessageRepository {
	return &MessageRepository{
		db:     config.DB,
		logger: config.Logger,
	}
}

// SaveMessages inserts the batch in one transaction
func (r *MessageRepository) SaveMessages(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	err := execTx(ctx, r.db, func(txCtx context.Context) error {
		executor := GetExecutor(txCtx, r.db)
		for i := range messages {
			m := &messages[i]
			if m.CreatedAt.IsZero() {
				m.CreatedAt = time.Now().UTC()
			}
			_, err := executor.ExecContext(txCtx, `
				INSERT INTO messages (id, chat_id, role, parts, attachments, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, m.ID, m.ChatID, m.Role, m.Parts, m.Attachments, m.CreatedAt.UTC())
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("save messages", "error", err)
		return fmt.Errorf("failed to save messages: %w", domain.ErrDatabase)
	}
	return nil
}

// GetMessagesByChat returns the chat's messages, oldest first
func (r *MessageRepository) GetMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	var messages []models.Message
	executor := GetExecutor(ctx, r.db)
	err := executor.SelectContext(ctx, &messages, `
		SELECT id, chat_id, role, parts, attachments, created_at FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC
	`, chatID)
	if err != nil {
		r.logger.Error("get messages by chat", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get messages by chat id: %w", domain.ErrDatabase)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// GetMessage retrieves a message by ID
func (r *MessageRepository) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &message, `
		SELECT id, chat_id, role, parts, attachments, created_at FROM messages WHERE id = ?
	`, id)
	if err != nil {
		if IsNoRowsError(err) {
			return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
		}
		r.logger.Error("get message", "error", err, "message_id", id)
		return nil, fmt.Errorf("failed to get message by id: %w", domain.ErrDatabase)
	}
	return &message, nil
}

// UpdateMessageParts replaces the stored parts of an existing message
func (r *MessageRepository) UpdateMessageParts(ctx context.Context, id string, parts models.PartList) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `UPDATE messages SET parts = ? WHERE id = ?`, parts, id)
	if err != nil {
		r.logger.Error("update message parts", "error", err, "message_id", id)
		return fmt.Errorf("failed to update message: %w", domain.ErrDatabase)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("update message parts rows affected", "error", err, "message_id", id)
		return fmt.Errorf("failed to update message: %w", domain.ErrDatabase)
	}
	if rows == 0 {
		return fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteMessagesAfter removes the chat's messages created at or after ts,
// deleting their votes first so the cascade cannot leave orphans.
func (r *MessageRepository) DeleteMessagesAfter(ctx context.Context, chatID string, ts time.Time) (int64, error) {
	var deleted int64

	err := execTx(ctx, r.db, func(txCtx context.Context) error {
		executor := GetExecutor(txCtx, r.db)

		var messageIDs []string
		err := executor.SelectContext(txCtx, &messageIDs, `
			SELECT id FROM messages WHERE chat_id = ? AND created_at >= ?
		`, chatID, ts.UTC())
		if err != nil {
			return err
		}
		if len(messageIDs) == 0 {
			return nil
		}

		query, args, err := sqlx.In(`DELETE FROM votes WHERE chat_id = ? AND message_id IN (?)`, chatID, messageIDs)
		if err != nil {
			return err
		}
		if _, err := executor.ExecContext(txCtx, query, args...); err != nil {
			return err
		}

		query, args, err = sqlx.In(`DELETE FROM messages WHERE id IN (?)`, messageIDs)
		if err != nil {
			return err
		}
		result, err := executor.ExecContext(txCtx, query, args...)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		r.logger.Error("delete messages after", "error", err, "chat_id", chatID)
		return 0, fmt.Errorf("failed to delete messages by chat id after timestamp: %w", domain.ErrDatabase)
	}

	return deleted, nil
}

// CountUserMessagesSince counts user-role messages across the user's chats
// created at or after the cutoff. Drives rate limiting.
func (r *MessageRepository) CountUserMessagesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages m
		JOIN chats c ON c.id = m.chat_id
		WHERE c.user_id = ? AND m.role = ? AND m.created_at >= ?
	`, userID, models.RoleUser, since.UTC())
	if err != nil {
		r.logger.Error("count user messages", "error", err, "user_id", userID)
		return 0, fmt.Errorf("failed to get message count by user id: %w", domain.ErrDatabase)
	}
	return count, nil
}
