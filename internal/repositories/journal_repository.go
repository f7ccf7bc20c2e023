package repositories

import (
	"context"

	"ruangpena/internal/models"
)

// JournalRepository defines the interface for journal data access.
// GetByID returns (nil, nil) when the entry does not exist and GetByUserID
// makes no ordering promise.
type JournalRepository interface {
	GetByUserID(ctx context.Context, userID string) ([]models.Journal, error)
	GetByID(ctx context.Context, id string) (*models.Journal, error)
	Create(ctx context.Context, journal *models.Journal) error
	Update(ctx context.Context, journal *models.Journal) error
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	CountByType(ctx context.Context, userID string) (map[models.JournalType]int64, error)
}
