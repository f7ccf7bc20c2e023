package repositories

import (
	"context"

	"ruangpena/internal/models"
)

// UserRepository defines the interface for user data access.
// Lookups return (nil, nil) when no user matches.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
