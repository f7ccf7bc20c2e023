package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ruangpena/internal/credentials"
	"ruangpena/internal/metrics"
	"ruangpena/internal/models"
	"ruangpena/internal/repositories"

	log "github.com/sirupsen/logrus"
)

// AuthService handles business logic for registration, login and tokens.
type AuthService struct {
	userRepo   repositories.UserRepository
	tokens     *credentials.TokenManager
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokens *credentials.TokenManager, bcryptCost int) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns it with a fresh token.
// An email that is already registered always yields ErrConflict.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthPayload, error) {
	payload, err := s.register(ctx, req)
	metrics.AuthEvent("register", err)
	return payload, err
}

func (s *AuthService) register(ctx context.Context, req models.RegisterRequest) (*models.AuthPayload, error) {
	email := NormalizeEmail(req.Email)
	if msg := credentials.ValidateEmail(email); msg != "" {
		return nil, validationError(msg)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, newError(ErrConflict, "Email is already registered")
	}

	if msg := credentials.ValidatePassword(req.Password); msg != "" {
		return nil, validationError(msg)
	}
	if req.Password != req.ConfirmPassword {
		return nil, validationError("Password confirmation does not match")
	}

	hash, err := credentials.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "Email is already registered")
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}

	log.WithField("user_id", user.ID).Info("user registered")
	return &models.AuthPayload{User: user, Token: token}, nil
}

// Login authenticates by email and password and returns a token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthPayload, error) {
	payload, err := s.login(ctx, req)
	metrics.AuthEvent("login", err)
	return payload, err
}

func (s *AuthService) login(ctx context.Context, req models.LoginRequest) (*models.AuthPayload, error) {
	email := NormalizeEmail(req.Email)
	if msg := credentials.ValidateEmail(email); msg != "" {
		return nil, validationError(msg)
	}
	if req.Password == "" {
		return nil, validationError(credentials.MsgPasswordRequired)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	// Unknown email and wrong password are indistinguishable to the caller.
	if user == nil || !credentials.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, newError(ErrUnauthorized, "Invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthPayload{User: user, Token: token}, nil
}

// ValidateToken resolves a bearer token to the user id it was issued for.
func (s *AuthService) ValidateToken(token string) (string, bool) {
	return s.tokens.Verify(token)
}
