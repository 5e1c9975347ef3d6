package handlers

import (
	"notekeeper/internal/middleware"
	"notekeeper/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// NoteHandler handles HTTP requests for notes. Every route requires a
// session; the owner always comes from the token.
type NoteHandler struct {
	service *services.NoteService
	log     *zap.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(service *services.NoteService, log *zap.Logger) *NoteHandler {
	return &NoteHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the note routes behind auth.
func (h *NoteHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	noteRoutes := router.Group("/notes", auth)
	noteRoutes.Get("/", h.HandleListNotes)
	noteRoutes.Get("/tags", h.HandleListTags)
	noteRoutes.Get("/:id", h.HandleGetNote)
	noteRoutes.Post("/", h.HandleCreateNote)
	noteRoutes.Put("/:id", h.HandleUpdateNote)
	noteRoutes.Patch("/:id", h.HandleUpdateNote)
	noteRoutes.Delete("/:id", h.HandleDeleteNote)
}

// HandleListNotes returns a page of the caller's notes.
func (h *NoteHandler) HandleListNotes(c *fiber.Ctx) error {
	var in services.ListNotesInput
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid query parameters",
			"error":   "validation",
		})
	}

	page, err := h.service.ListNotes(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return writeError(h.log, c, err)
	}
	return c.JSON(page)
}

// HandleListTags returns the distinct tags of the caller's notes.
func (h *NoteHandler) HandleListTags(c *fiber.Ctx) error {
	tags, err := h.service.ListTags(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(h.log, c, err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}

// HandleGetNote retrieves a single note by its ID.
func (h *NoteHandler) HandleGetNote(c *fiber.Ctx) error {
	note, err := h.service.GetNote(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return writeError(h.log, c, err)
	}
	return c.JSON(fiber.Map{"note": note})
}

// HandleCreateNote creates a note owned by the caller.
func (h *NoteHandler) HandleCreateNote(c *fiber.Ctx) error {
	var req services.CreateNoteInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	note, err := h.service.CreateNote(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return writeError(h.log, c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Note created successfully",
		"note":    note,
	})
}

// HandleUpdateNote applies a partial update to one of the caller's notes.
func (h *NoteHandler) HandleUpdateNote(c *fiber.Ctx) error {
	var req services.UpdateNoteInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	note, err := h.service.UpdateNote(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return writeError(h.log, c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Note updated successfully",
		"note":    note,
	})
}

// HandleDeleteNote deletes one of the caller's notes.
func (h *NoteHandler) HandleDeleteNote(c *fiber.Ctx) error {
	if err := h.service.DeleteNote(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return writeError(h.log, c, err)
	}
	return c.JSON(fiber.Map{"message": "Note deleted successfully"})
}
