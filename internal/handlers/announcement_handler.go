package handlers

import (
	"time"

	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/identity"
	"github.com/campuslink/moderation-backend/internal/services"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AnnouncementHandler struct {
	announcements *services.AnnouncementService
	clock         workflow.Clock
}

func NewAnnouncementHandler(announcements *services.AnnouncementService, clock workflow.Clock) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements, clock: clock}
}

// Active is the member-facing feed of live announcements.
func (h *AnnouncementHandler) Active(c *fiber.Ctx) error {
	announcements, err := h.announcements.Active(c.Context(), h.clock.Now().UTC())
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"announcements": announcements, "total": len(announcements)})
}

// PublicSearch searches published announcements only.
func (h *AnnouncementHandler) PublicSearch(c *fiber.Ctx) error {
	filters := services.SearchFilters{
		Category: c.Query("category"),
		Statuses: []workflow.Status{workflow.StatusPublished},
	}
	announcements, err := h.announcements.Search(c.Context(), c.Query("q"), filters)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"announcements": announcements, "total": len(announcements)})
}

func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateAnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	announcement, err := h.announcements.Create(c.Context(), userID, &req)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(announcement)
}

func (h *AnnouncementHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid announcement ID")
	}
	announcement, err := h.announcements.Get(c.Context(), id)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(announcement)
}

func (h *AnnouncementHandler) History(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid announcement ID")
	}
	entries, err := h.announcements.History(c.Context(), id)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"history": entries})
}

func (h *AnnouncementHandler) Drafts(c *fiber.Ctx) error {
	announcements, err := h.announcements.Drafts(c.Context())
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"announcements": announcements, "total": len(announcements)})
}

func (h *AnnouncementHandler) RequiringFollowUp(c *fiber.Ctx) error {
	announcements, err := h.announcements.RequiringFollowUp(c.Context(), h.clock.Now().UTC())
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"announcements": announcements, "total": len(announcements)})
}

func (h *AnnouncementHandler) ByAuthor(c *fiber.Ctx) error {
	authorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid author ID")
	}
	announcements, err := h.announcements.ByAuthor(c.Context(), authorID)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"announcements": announcements, "total": len(announcements)})
}

func (h *AnnouncementHandler) Publish(c *fiber.Ctx) error {
	id, actor, note, err := h.parseAction(c)
	if err != nil {
		return err
	}
	announcement, err := h.announcements.Publish(c.Context(), id, actor, note)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(announcement)
}

func (h *AnnouncementHandler) Schedule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid announcement ID")
	}
	actor, err := identity.Actor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req struct {
		ScheduledFor time.Time `json:"scheduled_for"`
	}
	if err := c.BodyParser(&req); err != nil || req.ScheduledFor.IsZero() {
		return badRequest(c, "scheduled_for is required")
	}

	announcement, err := h.announcements.Schedule(c.Context(), id, req.ScheduledFor, actor)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(announcement)
}

func (h *AnnouncementHandler) Archive(c *fiber.Ctx) error {
	id, actor, note, err := h.parseAction(c)
	if err != nil {
		return err
	}
	announcement, err := h.announcements.Archive(c.Context(), id, actor, note)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(announcement)
}

func (h *AnnouncementHandler) Search(c *fiber.Ctx) error {
	filters := services.SearchFilters{
		Category: c.Query("category"),
		Priority: workflow.Priority(c.Query("priority")),
	}
	if status := c.Query("status"); status != "" {
		filters.Statuses = []workflow.Status{workflow.Status(status)}
	}
	announcements, err := h.announcements.Search(c.Context(), c.Query("q"), filters)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"announcements": announcements, "total": len(announcements)})
}

func (h *AnnouncementHandler) parseAction(c *fiber.Ctx) (uuid.UUID, workflow.Actor, workflow.Note, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, workflow.Actor{}, workflow.Note{}, badRequest(c, "Invalid announcement ID")
	}
	actor, err := identity.Actor(c)
	if err != nil {
		return uuid.Nil, workflow.Actor{}, workflow.Note{}, unauthorized(c)
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return uuid.Nil, workflow.Actor{}, workflow.Note{}, badRequest(c, "Invalid request body")
	}
	return id, actor, workflow.Note{Reason: req.Reason, Notes: req.Notes}, nil
}
