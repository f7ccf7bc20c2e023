package handlers

import (
	"ruangpena/internal/models"
	"ruangpena/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService  *services.AuthService
	resetService *services.PasswordResetService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, resetService *services.PasswordResetService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		resetService: resetService,
	}
}

// RegisterRoutes registers the authentication routes. handlers run before
// every route in the group, e.g. a rate limiter.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, handlers ...fiber.Handler) {
	authRoutes := router.Group("/auth", handlers...)
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/forgot-password", h.HandleForgotPassword)
	authRoutes.Post("/reset-password", h.HandleResetPassword)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	payload, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Account created successfully", payload)
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	payload, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Login successful", payload)
}

// HandleForgotPassword sends a verification code to a registered email.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req models.ForgotPasswordRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if err := h.resetService.RequestReset(c.UserContext(), req); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, services.MsgResetCodeSent, nil)
}

// HandleResetPassword redeems a verification code for a new password.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req models.ResetPasswordRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if err := h.resetService.ResetPassword(c.UserContext(), req); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Password has been reset", nil)
}
