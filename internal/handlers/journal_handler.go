package handlers

import (
	"ruangpena/internal/middleware"
	"ruangpena/internal/models"
	"ruangpena/internal/services"

	"github.com/gofiber/fiber/v2"
)

// JournalHandler handles HTTP requests for journal entries.
type JournalHandler struct {
	service *services.JournalService
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(service *services.JournalService) *JournalHandler {
	return &JournalHandler{service: service}
}

// RegisterRoutes registers the journal routes behind guard.
func (h *JournalHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	journalRoutes := router.Group("/journal", guard)
	journalRoutes.Get("/", h.HandleList)
	// Before "/:id" so "stats" is not taken for an id.
	journalRoutes.Get("/stats", h.HandleStats)
	journalRoutes.Post("/", h.HandleCreate)
	journalRoutes.Get("/:id", h.HandleGet)
	journalRoutes.Put("/:id", h.HandleUpdate)
	journalRoutes.Delete("/:id", h.HandleDelete)
}

// HandleList returns the caller's journals, filtered by the search, type
// and sort query parameters.
func (h *JournalHandler) HandleList(c *fiber.Ctx) error {
	filter := models.JournalFilter{
		Search: c.Query("search"),
		Type:   c.Query("type"),
		Sort:   c.Query("sort"),
	}

	journals, err := h.service.List(c.UserContext(), middleware.UserID(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	for i := range journals {
		journals[i].WithTypeName()
	}
	return respond(c, fiber.StatusOK, "Journals retrieved successfully", journals)
}

// HandleStats returns journal counts per type.
func (h *JournalHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Journal statistics retrieved successfully", stats)
}

// HandleGet returns one journal owned by the caller.
func (h *JournalHandler) HandleGet(c *fiber.Ctx) error {
	journal, err := h.service.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Journal retrieved successfully", journal.WithTypeName())
}

// HandleCreate stores a new journal for the caller.
func (h *JournalHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateJournalRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	journal, err := h.service.Create(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Journal saved successfully", journal.WithTypeName())
}

// HandleUpdate applies a partial update to a journal owned by the caller.
func (h *JournalHandler) HandleUpdate(c *fiber.Ctx) error {
	var req models.UpdateJournalRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	journal, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Journal updated successfully", journal.WithTypeName())
}

// HandleDelete removes a journal owned by the caller.
func (h *JournalHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Journal deleted successfully", nil)
}
