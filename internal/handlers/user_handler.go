package handlers

import (
	"errors"
	"strconv"

	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/identity"
	"github.com/campuslink/moderation-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) BlockUser(c *fiber.Ctx) error {
	blockerID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.BlockUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.users.BlockUser(c.Context(), blockerID, req.BlockedID); err != nil {
		if errors.Is(err, services.ErrSelfBlock) || errors.Is(err, services.ErrAlreadyBlocked) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to block user",
		})
	}
	return c.JSON(fiber.Map{"message": "User blocked successfully"})
}

func (h *UserHandler) UnblockUser(c *fiber.Ctx) error {
	blockerID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	blockedID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	if err := h.users.UnblockUser(c.Context(), blockerID, blockedID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to unblock user",
		})
	}
	return c.JSON(fiber.Map{"message": "User unblocked successfully"})
}

func (h *UserHandler) Blocked(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ids, err := h.users.GetBlockedIDs(c.Context(), userID)
	if err != nil {
		return respondWorkflowError(c, err)
	}
	return c.JSON(fiber.Map{"blocked_ids": ids})
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	role := c.Query("role", "")
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit > 100 {
		limit = 100
	}

	users, total, err := h.users.List(c.Context(), role, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch users",
		})
	}
	return c.JSON(fiber.Map{"users": users, "total": total, "limit": limit, "offset": offset})
}

func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	var req dto.SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.users.SetRole(c.Context(), userID, req.Role); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return badRequest(c, err.Error())
	}
	return c.JSON(fiber.Map{"message": "Role updated successfully"})
}
