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

// StreamRepository implements repositories.StreamRepository using SQLite.
type StreamRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStreamRepository creates a new StreamRepository
func NewStreamRepository(config *RepositoryConfig) repositories.StreamRepository {
	return &StreamRepository{
		db:     config.DB,
		logger: config.Logger,
	}
}

// CreateStreamMarker records that a stream was opened for the chat
func (r *StreamRepository) CreateStreamMarker(ctx context.Context, streamID, chatID string) error {
	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO streams (id, chat_id, created_at) VALUES (?, ?, ?)
	`, streamID, chatID, time.Now().UTC())
	if err != nil {
		r.logger.Error("create stream marker", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to create stream id: %w", domain.ErrDatabase)
	}
	return nil
}

// GetStreamIDsByChat returns the chat's stream IDs, oldest first
func (r *StreamRepository) GetStreamIDsByChat(ctx context.Context, chatID string) ([]string, error) {
	var ids []string
	executor := GetExecutor(ctx, r.db)
	err := executor.SelectContext(ctx, &ids, `
		SELECT id FROM streams WHERE chat_id = ? ORDER BY created_at ASC
	`, chatID)
	if err != nil {
		r.logger.Error("get stream ids by chat", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get stream ids by chat id: %w", domain.ErrDatabase)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// GetStreamMarkersByChat returns the chat's stream markers, oldest first
func (r *StreamRepository) GetStreamMarkersByChat(ctx context.Context, chatID string) ([]models.StreamMarker, error) {
	var markers []models.StreamMarker
	executor := GetExecutor(ctx, r.db)
	err := executor.SelectContext(ctx, &markers, `
		SELECT id, chat_id, created_at FROM streams WHERE chat_id = ? ORDER BY created_at ASC
	`, chatID)
	if err != nil {
		r.logger.Error("get stream markers by chat", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get stream markers by chat id: %w", domain.ErrDatabase)
	}
	if markers == nil {
		markers = []models.StreamMarker{}
	}
	return markers, nil
}
