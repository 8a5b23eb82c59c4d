package handlers

import (
	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/identity"
	"github.com/campuslink/moderation-backend/internal/services"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RequestHandler struct {
	requests *services.RequestService
	clock    workflow.Clock
}

func NewRequestHandler(requests *services.RequestService, clock workflow.Clock) *RequestHandler {
	return &RequestHandler{requests: requests, clock: clock}
}

func (h *RequestHandler) Create(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreatePublishRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	request, err := h.requests.Create(c.Context(), userID, &req)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

func (h *RequestHandler) Mine(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	requests, err := h.requests.ByRequester(c.Context(), userID)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests, "total": len(requests)})
}

// Cancel lets the requester withdraw a pending request. The transition table
// enforces ownership.
func (h *RequestHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, workflow.StatusCancelled)
}

func (h *RequestHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid request ID")
	}
	request, err := h.requests.Get(c.Context(), id)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(request)
}

func (h *RequestHandler) History(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid request ID")
	}
	entries, err := h.requests.History(c.Context(), id)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"history": entries})
}

func (h *RequestHandler) Pending(c *fiber.Ctx) error {
	requests, err := h.requests.Pending(c.Context())
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests, "total": len(requests)})
}

func (h *RequestHandler) Overdue(c *fiber.Ctx) error {
	requests, err := h.requests.Overdue(c.Context(), h.clock.Now().UTC())
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests, "total": len(requests)})
}

func (h *RequestHandler) RequiringFollowUp(c *fiber.Ctx) error {
	requests, err := h.requests.RequiringFollowUp(c.Context(), h.clock.Now().UTC())
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests, "total": len(requests)})
}

func (h *RequestHandler) ByAssignee(c *fiber.Ctx) error {
	assigneeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid assignee ID")
	}
	requests, err := h.requests.ByAssignee(c.Context(), assigneeID)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests, "total": len(requests)})
}

func (h *RequestHandler) ByClub(c *fiber.Ctx) error {
	clubID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid club ID")
	}
	requests, err := h.requests.ByClub(c.Context(), clubID)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests, "total": len(requests)})
}

func (h *RequestHandler) Assign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid request ID")
	}
	actor, err := identity.Actor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil || req.AssigneeID == uuid.Nil {
		return badRequest(c, "assignee_id is required")
	}

	request, err := h.requests.Assign(c.Context(), id, req.AssigneeID, actor)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(request)
}

func (h *RequestHandler) Approve(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid request ID")
	}
	actor, err := identity.Actor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}

	request, err := h.requests.Approve(c.Context(), id, actor, workflow.Note{Reason: req.Reason, Notes: req.Notes})
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(request)
}

func (h *RequestHandler) Reject(c *fiber.Ctx) error {
	return h.transition(c, workflow.StatusRejected)
}

func (h *RequestHandler) transition(c *fiber.Ctx, target workflow.Status) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid request ID")
	}
	actor, err := identity.Actor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}

	note := workflow.Note{Reason: req.Reason, Notes: req.Notes}
	var request interface{}
	switch target {
	case workflow.StatusRejected:
		request, err = h.requests.Reject(c.Context(), id, actor, note)
	case workflow.StatusCancelled:
		request, err = h.requests.Cancel(c.Context(), id, actor, note)
	default:
		return badRequest(c, "Unsupported action")
	}
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(request)
}

func (h *RequestHandler) ScheduleFollowUp(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid request ID")
	}
	var req dto.FollowUpRequest
	if err := c.BodyParser(&req); err != nil || req.FollowUpDate.IsZero() {
		return badRequest(c, "follow_up_date is required")
	}
	request, err := h.requests.ScheduleFollowUp(c.Context(), id, req.FollowUpDate)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(request)
}

func (h *RequestHandler) Search(c *fiber.Ctx) error {
	filters := services.SearchFilters{
		Category: c.Query("category"),
		Priority: workflow.Priority(c.Query("priority")),
		Tag:      c.Query("tag"),
	}
	if status := c.Query("status"); status != "" {
		filters.Statuses = []workflow.Status{workflow.Status(status)}
	}
	if owner := c.Query("requester_id"); owner != "" {
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			return badRequest(c, "Invalid requester_id")
		}
		filters.OwnerID = ownerID
	}

	requests, err := h.requests.Search(c.Context(), c.Query("q"), filters)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests, "total": len(requests)})
}
