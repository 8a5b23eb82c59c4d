package handlers

import (
	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/identity"
	"github.com/campuslink/moderation-backend/internal/services"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	reports *services.ReportService
	clock   workflow.Clock
}

func NewReportHandler(reports *services.ReportService, clock workflow.Clock) *ReportHandler {
	return &ReportHandler{reports: reports, clock: clock}
}

func (h *ReportHandler) Create(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.reports.Create(c.Context(), userID, &req)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) Mine(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	reports, err := h.reports.ByReporter(c.Context(), userID)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "total": len(reports)})
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}
	report, err := h.reports.Get(c.Context(), id)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) History(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}
	entries, err := h.reports.History(c.Context(), id)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"history": entries})
}

func (h *ReportHandler) Pending(c *fiber.Ctx) error {
	reports, err := h.reports.Pending(c.Context())
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "total": len(reports)})
}

func (h *ReportHandler) Overdue(c *fiber.Ctx) error {
	reports, err := h.reports.Overdue(c.Context(), h.clock.Now().UTC())
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "total": len(reports)})
}

func (h *ReportHandler) RequiringFollowUp(c *fiber.Ctx) error {
	reports, err := h.reports.RequiringFollowUp(c.Context(), h.clock.Now().UTC())
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "total": len(reports)})
}

func (h *ReportHandler) ByAssignee(c *fiber.Ctx) error {
	assigneeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid assignee ID")
	}
	reports, err := h.reports.ByAssignee(c.Context(), assigneeID)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "total": len(reports)})
}

// ByTarget lists every report filed against one piece of content, for the
// moderator judging how widespread a complaint is.
func (h *ReportHandler) ByTarget(c *fiber.Ctx) error {
	contentType := c.Params("type")
	contentID := c.Params("content_id")
	if contentType == "" || contentID == "" {
		return badRequest(c, "content type and ID are required")
	}
	reports, err := h.reports.ByTarget(c.Context(), contentType, contentID)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "total": len(reports)})
}

func (h *ReportHandler) Assign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}
	actor, err := identity.Actor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil || req.AssigneeID == uuid.Nil {
		return badRequest(c, "assignee_id is required")
	}

	report, err := h.reports.Assign(c.Context(), id, req.AssigneeID, actor)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) Resolve(c *fiber.Ctx) error {
	return h.transition(c, workflow.StatusResolved)
}

func (h *ReportHandler) Dismiss(c *fiber.Ctx) error {
	return h.transition(c, workflow.StatusDismissed)
}

func (h *ReportHandler) Escalate(c *fiber.Ctx) error {
	return h.transition(c, workflow.StatusEscalated)
}

func (h *ReportHandler) transition(c *fiber.Ctx, target workflow.Status) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}
	actor, err := identity.Actor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.reports.Transition(c.Context(), id, target, actor, workflow.Note{Reason: req.Reason, Notes: req.Notes})
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) ScheduleFollowUp(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}
	var req dto.FollowUpRequest
	if err := c.BodyParser(&req); err != nil || req.FollowUpDate.IsZero() {
		return badRequest(c, "follow_up_date is required")
	}
	report, err := h.reports.ScheduleFollowUp(c.Context(), id, req.FollowUpDate)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) Search(c *fiber.Ctx) error {
	filters := services.SearchFilters{
		Category: c.Query("category"),
		Priority: workflow.Priority(c.Query("priority")),
		Tag:      c.Query("tag"),
	}
	if status := c.Query("status"); status != "" {
		filters.Statuses = []workflow.Status{workflow.Status(status)}
	}
	if owner := c.Query("reporter_id"); owner != "" {
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			return badRequest(c, "Invalid reporter_id")
		}
		filters.OwnerID = ownerID
	}

	reports, err := h.reports.Search(c.Context(), c.Query("q"), filters)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "total": len(reports)})
}
