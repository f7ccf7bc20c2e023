package services

import (
	"context"
	"fmt"
	"strings"

	"ruangpena/internal/credentials"
	"ruangpena/internal/models"
	"ruangpena/internal/repositories"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// MinNameLength is the shortest accepted display name.
const MinNameLength = 2

// UserService handles account settings for an authenticated user.
type UserService struct {
	userRepo    repositories.UserRepository
	journalRepo repositories.JournalRepository
	publisher   EventPublisher
	validate    *validator.Validate
	bcryptCost  int
}

// NewUserService creates a new UserService. publisher may be nil.
func NewUserService(userRepo repositories.UserRepository, journalRepo repositories.JournalRepository, publisher EventPublisher, bcryptCost int) *UserService {
	return &UserService{
		userRepo:    userRepo,
		journalRepo: journalRepo,
		publisher:   publisher,
		validate:    validator.New(),
		bcryptCost:  bcryptCost,
	}
}

// Me returns the authenticated user's account.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.getUser(ctx, userID)
}

// UpdateProfile applies the fields present in req.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationError("Name is required")
		}
		if len([]rune(name)) < MinNameLength {
			return nil, validationError(fmt.Sprintf("Name must be at least %d characters", MinNameLength))
		}
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name == nil {
		return user, nil
	}

	user.Name = name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return validationError("Current password and new password are required")
	}
	if msg := credentials.ValidatePassword(req.NewPassword); msg != "" {
		return validationError(msg)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !credentials.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return validationError("Current password is incorrect")
	}

	hash, err := credentials.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	log.WithField("user_id", userID).Info("password changed")
	return nil
}

// DeleteAccount removes the user and every journal they own once the
// password is confirmed.
func (s *UserService) DeleteAccount(ctx context.Context, userID string, req models.DeleteAccountRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return validationError("Password is required to confirm account deletion")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !credentials.VerifyPassword(req.Password, user.PasswordHash) {
		return validationError("Password is incorrect")
	}

	// The user goes first: the GORM store removes their journals in the
	// same transaction, so a failure here leaves the account intact. The
	// sweep afterwards covers stores without that cascade.
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if err := s.journalRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete journals: %w", err)
	}

	publishEvent(ctx, s.publisher, models.JournalEvent{Event: models.EventUserDeleted, UserID: userID})
	log.WithField("user_id", userID).Info("account deleted")
	return nil
}

// getUser fetches the account behind a verified token. A token that
// outlived its user yields ErrNotFound.
func (s *UserService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, newError(ErrNotFound, "User not found")
	}
	return user, nil
}
