package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"ruangpena/internal/credentials"
	"ruangpena/internal/models"
	"ruangpena/internal/repositories"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// DefaultResetCodeTTL is how long a password reset code stays usable.
const DefaultResetCodeTTL = 10 * time.Minute

// Messages returned by the password reset flow.
const (
	MsgResetCodeSent    = "If the email is registered, a verification code has been sent"
	MsgResetCodeFormat  = "Verification code must be 6 digits"
	MsgResetCodeInvalid = "Invalid or expired verification code"
)

// PasswordResetService issues and redeems email verification codes.
type PasswordResetService struct {
	userRepo   repositories.UserRepository
	codes      repositories.ResetCodeRepository
	sender     ResetCodeSender
	validate   *validator.Validate
	ttl        time.Duration
	bcryptCost int
	newCode    func() (string, error)
}

// NewPasswordResetService creates a new PasswordResetService. A non-positive
// ttl uses DefaultResetCodeTTL.
func NewPasswordResetService(userRepo repositories.UserRepository, codes repositories.ResetCodeRepository, sender ResetCodeSender, ttl time.Duration, bcryptCost int) *PasswordResetService {
	if ttl <= 0 {
		ttl = DefaultResetCodeTTL
	}
	return &PasswordResetService{
		userRepo:   userRepo,
		codes:      codes,
		sender:     sender,
		validate:   validator.New(),
		ttl:        ttl,
		bcryptCost: bcryptCost,
		newCode:    generateResetCode,
	}
}

// RequestReset sends a code when the email belongs to an account. The
// outcome is the same whether or not the account exists.
func (s *PasswordResetService) RequestReset(ctx context.Context, req models.ForgotPasswordRequest) error {
	email := NormalizeEmail(req.Email)
	if msg := credentials.ValidateEmail(email); msg != "" {
		return validationError(msg)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		log.WithField("email", email).Debug("password reset requested for unknown email")
		return nil
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}
	if err := s.codes.Save(ctx, email, code, s.ttl); err != nil {
		return err
	}
	if err := s.sender.SendResetCode(ctx, email, code); err != nil {
		return fmt.Errorf("failed to send reset code: %w", err)
	}
	return nil
}

// ResetPassword redeems a code and replaces the account password.
func (s *PasswordResetService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	email := NormalizeEmail(req.Email)
	if msg := credentials.ValidateEmail(email); msg != "" {
		return validationError(msg)
	}
	if err := s.validate.Var(req.Code, "required,len=6,number"); err != nil {
		return validationError(MsgResetCodeFormat)
	}
	if msg := credentials.ValidatePassword(req.NewPassword); msg != "" {
		return validationError(msg)
	}
	if req.NewPassword != req.ConfirmPassword {
		return validationError("Password confirmation does not match")
	}

	ok, err := s.codes.Consume(ctx, email, req.Code)
	if err != nil {
		return err
	}
	if !ok {
		return validationError(MsgResetCodeInvalid)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return validationError(MsgResetCodeInvalid)
	}

	hash, err := credentials.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	log.WithField("user_id", user.ID).Info("password reset")
	return nil
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
