package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ruangpena/internal/metrics"
	"ruangpena/internal/models"
	"ruangpena/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Validation messages for journal payloads.
const (
	MsgContentRequired = "Journal content is required"
	MsgContentEmpty    = "Journal content cannot be empty"
	MsgInvalidType     = "Invalid journal type"
	MsgInvalidSort     = "Invalid sort option"
)

// JournalService handles business logic related to journal entries.
type JournalService struct {
	journalRepo repositories.JournalRepository
	userRepo    repositories.UserRepository
	publisher   EventPublisher
	validate    *validator.Validate
}

// NewJournalService creates a new JournalService. publisher may be nil.
func NewJournalService(journalRepo repositories.JournalRepository, userRepo repositories.UserRepository, publisher EventPublisher) *JournalService {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("journaltype", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseJournalType(fl.Field().String())
		return ok
	})

	return &JournalService{
		journalRepo: journalRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		validate:    v,
	}
}

// List returns the user's journals narrowed by filter. Entries are ordered
// newest first unless filter.Sort says otherwise.
func (s *JournalService) List(ctx context.Context, userID string, filter models.JournalFilter) ([]models.Journal, error) {
	var typeFilter models.JournalType
	if filter.Type != "" && !strings.EqualFold(filter.Type, "all") {
		t, ok := models.ParseJournalType(filter.Type)
		if !ok {
			return nil, validationError(MsgInvalidType)
		}
		typeFilter = t
	}
	less, ok := journalOrder(filter.Sort)
	if !ok {
		return nil, validationError(MsgInvalidSort)
	}

	journals, err := s.journalRepo.GetByUserID(ctx, userID)
	metrics.JournalOperation("list", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(filter.Search))
	filtered := make([]models.Journal, 0, len(journals))
	for _, j := range journals {
		if typeFilter != "" && j.Type != typeFilter {
			continue
		}
		if query != "" && !matchesSearch(j, query) {
			continue
		}
		filtered = append(filtered, j)
	}

	sort.SliceStable(filtered, func(a, b int) bool { return less(&filtered[a], &filtered[b]) })
	return filtered, nil
}

// Get returns a journal owned by userID.
func (s *JournalService) Get(ctx context.Context, userID, id string) (*models.Journal, error) {
	return s.getOwned(ctx, userID, id)
}

// Create stores a new journal for userID.
func (s *JournalService) Create(ctx context.Context, userID string, req models.CreateJournalRequest) (*models.Journal, error) {
	journal, err := s.create(ctx, userID, req)
	metrics.JournalOperation("create", err)
	return journal, err
}

func (s *JournalService) create(ctx context.Context, userID string, req models.CreateJournalRequest) (*models.Journal, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(createValidationMessage(err))
	}
	journalType, _ := models.ParseJournalType(req.Type)

	owner, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get journal owner: %w", err)
	}
	if owner == nil {
		return nil, newError(ErrUnauthorized, "User no longer exists")
	}

	journal := &models.Journal{
		UserID:  userID,
		Title:   strings.TrimSpace(req.Title),
		Content: strings.TrimSpace(req.Content),
		Type:    journalType,
		Tags:    cleanTags(req.Tags),
	}
	if err := s.journalRepo.Create(ctx, journal); err != nil {
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}

	publishEvent(ctx, s.publisher, models.JournalEvent{
		Event:     models.EventJournalCreated,
		UserID:    userID,
		JournalID: journal.ID,
		Type:      journal.Type,
	})
	return journal.WithTypeName(), nil
}

// Update applies the fields present in req to a journal owned by userID.
func (s *JournalService) Update(ctx context.Context, userID, id string, req models.UpdateJournalRequest) (*models.Journal, error) {
	journal, err := s.update(ctx, userID, id, req)
	metrics.JournalOperation("update", err)
	return journal, err
}

func (s *JournalService) update(ctx context.Context, userID, id string, req models.UpdateJournalRequest) (*models.Journal, error) {
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		return nil, validationError(MsgContentEmpty)
	}
	var journalType models.JournalType
	if req.Type != nil {
		t, ok := models.ParseJournalType(*req.Type)
		if !ok {
			return nil, validationError(MsgInvalidType)
		}
		journalType = t
	}

	journal, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		journal.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		journal.Content = strings.TrimSpace(*req.Content)
	}
	if req.Type != nil {
		journal.Type = journalType
	}
	if req.Tags != nil {
		journal.Tags = cleanTags(*req.Tags)
	}

	if err := s.journalRepo.Update(ctx, journal); err != nil {
		return nil, fmt.Errorf("failed to update journal: %w", err)
	}

	updated, err := s.journalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload journal: %w", err)
	}
	if updated == nil {
		return nil, newError(ErrNotFound, "Journal not found")
	}

	publishEvent(ctx, s.publisher, models.JournalEvent{
		Event:     models.EventJournalUpdated,
		UserID:    userID,
		JournalID: id,
		Type:      updated.Type,
	})
	return updated, nil
}

// Delete removes a journal owned by userID.
func (s *JournalService) Delete(ctx context.Context, userID, id string) error {
	err := s.delete(ctx, userID, id)
	metrics.JournalOperation("delete", err)
	return err
}

func (s *JournalService) delete(ctx context.Context, userID, id string) error {
	journal, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.journalRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete journal: %w", err)
	}

	publishEvent(ctx, s.publisher, models.JournalEvent{
		Event:     models.EventJournalDeleted,
		UserID:    userID,
		JournalID: id,
		Type:      journal.Type,
	})
	return nil
}

// Stats counts the user's journals in total and per type. Every type is
// present in ByType, with zero when the user has none.
func (s *JournalService) Stats(ctx context.Context, userID string) (*models.JournalStats, error) {
	counts, err := s.journalRepo.CountByType(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count journals: %w", err)
	}

	stats := &models.JournalStats{ByType: make(map[models.JournalType]int64, len(models.JournalTypes))}
	for _, t := range models.JournalTypes {
		stats.ByType[t] = counts[t]
		stats.Total += counts[t]
	}
	return stats, nil
}

// getOwned fetches a journal and checks it belongs to userID. Ownership is
// derived from the freshly loaded record on every call.
func (s *JournalService) getOwned(ctx context.Context, userID, id string) (*models.Journal, error) {
	journal, err := s.journalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get journal: %w", err)
	}
	if journal == nil {
		return nil, newError(ErrNotFound, "Journal not found")
	}
	if journal.UserID != userID {
		return nil, newError(ErrForbidden, "Forbidden")
	}
	return journal, nil
}

func createValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Type" {
		return MsgInvalidType
	}
	return MsgContentRequired
}

// cleanTags trims every tag and drops the empty ones, keeping order.
func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

func matchesSearch(j models.Journal, query string) bool {
	if strings.Contains(strings.ToLower(j.Title), query) || strings.Contains(strings.ToLower(j.Content), query) {
		return true
	}
	for _, tag := range j.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func journalOrder(option string) (func(a, b *models.Journal) bool, bool) {
	newest := func(a, b *models.Journal) bool { return a.CreatedAt.After(b.CreatedAt) }
	switch option {
	case "", models.SortDateDesc:
		return newest, true
	case models.SortDateAsc:
		return func(a, b *models.Journal) bool { return a.CreatedAt.Before(b.CreatedAt) }, true
	case models.SortTitleAsc:
		return func(a, b *models.Journal) bool {
			ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if ta == tb {
				return newest(a, b)
			}
			return ta < tb
		}, true
	case models.SortTitleDesc:
		return func(a, b *models.Journal) bool {
			ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if ta == tb {
				return newest(a, b)
			}
			return ta > tb
		}, true
	}
	return nil, false
}
