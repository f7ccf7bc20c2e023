package repositories

import (
	"context"
	"errors"
	"fmt"

	"ruangpena/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMJournalRepository is a GORM implementation of JournalRepository.
type GORMJournalRepository struct {
	db *gorm.DB
}

// NewGORMJournalRepository creates a new instance of GORMJournalRepository.
func NewGORMJournalRepository(db *gorm.DB) *GORMJournalRepository {
	return &GORMJournalRepository{
		db: db,
	}
}

// GetByUserID retrieves every journal owned by userID.
func (r *GORMJournalRepository) GetByUserID(ctx context.Context, userID string) ([]models.Journal, error) {
	var journals []models.Journal
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&journals).Error; err != nil {
		return nil, fmt.Errorf("failed to get journals for user %s: %w", userID, err)
	}
	for i := range journals {
		journals[i].WithTypeName()
	}
	return journals, nil
}

// GetByID retrieves a single journal by its ID from the database.
func (r *GORMJournalRepository) GetByID(ctx context.Context, id string) (*models.Journal, error) {
	var journal models.Journal
	if err := r.db.WithContext(ctx).First(&journal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get journal by ID %s: %w", id, err)
	}
	return journal.WithTypeName(), nil
}

// Create creates a new journal in the database.
func (r *GORMJournalRepository) Create(ctx context.Context, journal *models.Journal) error {
	if journal.ID == "" {
		journal.ID = uuid.New().String()
	}
	if journal.Tags == nil {
		journal.Tags = []string{}
	}
	if err := r.db.WithContext(ctx).Create(journal).Error; err != nil {
		return fmt.Errorf("failed to create journal: %w", err)
	}
	journal.WithTypeName()
	return nil
}

// Update saves the editable fields of an existing journal.
func (r *GORMJournalRepository) Update(ctx context.Context, journal *models.Journal) error {
	res := r.db.WithContext(ctx).Model(journal).
		Select("Title", "Content", "Type", "Tags", "UpdatedAt").
		Updates(journal)
	if res.Error != nil {
		return fmt.Errorf("failed to update journal %s: %w", journal.ID, res.Error)
	}
	journal.WithTypeName()
	return nil
}

// Delete deletes a journal by its ID from the database.
func (r *GORMJournalRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Journal{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete journal %s: %w", id, err)
	}
	return nil
}

// DeleteByUserID deletes every journal owned by userID.
func (r *GORMJournalRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Journal{}).Error; err != nil {
		return fmt.Errorf("failed to delete journals for user %s: %w", userID, err)
	}
	return nil
}

// CountByType groups the user's journals by type.
func (r *GORMJournalRepository) CountByType(ctx context.Context, userID string) (map[models.JournalType]int64, error) {
	var rows []struct {
		Type  models.JournalType
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&models.Journal{}).
		Select("type, count(*) as count").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count journals for user %s: %w", userID, err)
	}

	counts := make(map[models.JournalType]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}
