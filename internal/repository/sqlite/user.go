package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"skiff/internal/domain"
	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
)

// UserRepository implements repositories.UserRepository using SQLite.
type UserRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &UserRepository{
		db:     config.DB,
		logger: config.Logger,
	}
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &user, `SELECT id, email, password FROM users WHERE id = ?`, id)
	if err != nil {
		if IsNoRowsError(err) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		r.logger.Error("get user", "error", err, "user_id", id)
		return nil, fmt.Errorf("failed to get user: %w", domain.ErrDatabase)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	executor := GetExecutor(ctx, r.db)
	err := executor.GetContext(ctx, &user, `SELECT id, email, password FROM users WHERE email = ?`, email)
	if err != nil {
		if IsNoRowsError(err) {
			return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
		}
		r.logger.Error("get user by email", "error", err)
		return nil, fmt.Errorf("failed to get user by email: %w", domain.ErrDatabase)
	}
	return &user, nil
}

// CreateUser creates a user with a bcrypt-hashed password
func (r *UserRepository) CreateUser(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:    uuid.NewString(),
		Email: email,
	}
	hashStr := string(hash)
	user.Password = &hashStr

	executor := GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx,
		`INSERT INTO users (id, email, password) VALUES (?, ?, ?)`,
		user.ID, user.Email, user.Password,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return nil, fmt.Errorf("user %s: %w", email, domain.ErrConflict)
		}
		r.logger.Error("create user", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", domain.ErrDatabase)
	}

	return user, nil
}

// CreateGuestUser creates a user with a generated email and random password.
// Guests carry a password hash like regular users so the schema stays uniform,
// but the plaintext is discarded immediately.
func (r *UserRepository) CreateGuestUser(ctx context.Context) (*models.User, error) {
	email := fmt.Sprintf("guest-%d", time.Now().UnixMilli())
	return r.CreateUser(ctx, email, uuid.NewString())
}
