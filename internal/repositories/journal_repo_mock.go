package repositories

import (
	"context"
	"sync"
	"time"

	"ruangpena/internal/models"

	"github.com/google/uuid"
)

// MockJournalRepository is an in-memory implementation of JournalRepository.
type MockJournalRepository struct {
	journals map[string]models.Journal
	mu       sync.RWMutex
}

// NewMockJournalRepository creates a new instance of MockJournalRepository.
func NewMockJournalRepository() *MockJournalRepository {
	return &MockJournalRepository{
		journals: make(map[string]models.Journal),
	}
}

// GetByUserID returns all journals owned by userID.
func (r *MockJournalRepository) GetByUserID(_ context.Context, userID string) ([]models.Journal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Journal, 0)
	for _, j := range r.journals {
		if j.UserID == userID {
			list = append(list, *copyJournal(j).WithTypeName())
		}
	}
	return list, nil
}

// GetByID returns a journal by its ID.
func (r *MockJournalRepository) GetByID(_ context.Context, id string) (*models.Journal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.journals[id]
	if !ok {
		return nil, nil
	}
	return copyJournal(j).WithTypeName(), nil
}

// Create adds a new journal. A zero CreatedAt is set to now.
func (r *MockJournalRepository) Create(_ context.Context, journal *models.Journal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if journal.ID == "" {
		journal.ID = uuid.New().String()
	}
	if journal.CreatedAt.IsZero() {
		journal.CreatedAt = time.Now()
	}
	journal.UpdatedAt = journal.CreatedAt
	journal.WithTypeName()
	r.journals[journal.ID] = *copyJournal(*journal)
	return nil
}

// Update replaces an existing journal.
func (r *MockJournalRepository) Update(_ context.Context, journal *models.Journal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.journals[journal.ID]; !ok {
		return nil
	}
	journal.UpdatedAt = time.Now()
	journal.WithTypeName()
	r.journals[journal.ID] = *copyJournal(*journal)
	return nil
}

// Delete removes a journal by its ID.
func (r *MockJournalRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.journals, id)
	return nil
}

// DeleteByUserID removes every journal owned by userID.
func (r *MockJournalRepository) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, j := range r.journals {
		if j.UserID == userID {
			delete(r.journals, id)
		}
	}
	return nil
}

// CountByType groups the user's journals by type.
func (r *MockJournalRepository) CountByType(_ context.Context, userID string) (map[models.JournalType]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.JournalType]int64)
	for _, j := range r.journals {
		if j.UserID == userID {
			counts[j.Type]++
		}
	}
	return counts, nil
}

// copyJournal detaches the tag slice so callers cannot mutate stored state.
func copyJournal(j models.Journal) *models.Journal {
	j.Tags = append([]string{}, j.Tags...)
	return &j
}
