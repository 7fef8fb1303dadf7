package repositories

import (
	"context"

	"skiff/internal/domain/models"
)

// UserRepository manages user accounts.
type UserRepository interface {
	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail retrieves a user by email, or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateUser creates a user with a hashed password.
	CreateUser(ctx context.Context, email, password string) (*models.User, error)

	// CreateGuestUser creates a user with a generated guest email and a
	// random password.
	CreateGuestUser(ctx context.Context) (*models.User, error)
}
