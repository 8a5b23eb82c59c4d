package handlers

import (
	"time"

	"github.com/campuslink/moderation-backend/internal/database"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	startedAt time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	code := fiber.StatusOK
	if err := database.Ping(); err != nil {
		dbStatus = "unreachable"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   dbStatus,
		"uptime_s": int(time.Since(h.startedAt).Seconds()),
	})
}
