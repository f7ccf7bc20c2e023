package handlers

import (
	"ruangpena/internal/middleware"
	"ruangpena/internal/models"
	"ruangpena/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the account settings of the authenticated user.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers the account routes behind guard.
func (h *UserHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	userRoutes := router.Group("/user", guard)
	userRoutes.Get("/me", h.HandleMe)
	userRoutes.Put("/profile", h.HandleUpdateProfile)
	userRoutes.Put("/change-password", h.HandleChangePassword)
	userRoutes.Delete("/delete", h.HandleDeleteAccount)
}

// HandleMe returns the caller's account.
func (h *UserHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.service.Me(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "User retrieved successfully", user)
}

// HandleUpdateProfile updates the display name.
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req models.UpdateProfileRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	user, err := h.service.UpdateProfile(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Profile updated successfully", user)
}

// HandleChangePassword replaces the caller's password.
func (h *UserHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req models.ChangePasswordRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if err := h.service.ChangePassword(c.UserContext(), middleware.UserID(c), req); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Password changed successfully", nil)
}

// HandleDeleteAccount removes the caller and all of their journals.
func (h *UserHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	var req models.DeleteAccountRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if err := h.service.DeleteAccount(c.UserContext(), middleware.UserID(c), req); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Account deleted successfully", nil)
}
