package middleware

import (
	"strings"

	"github.com/campuslink/moderation-backend/internal/config"
	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/identity"
	"github.com/campuslink/moderation-backend/internal/models"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ModeratorRequired admits moderators and admins. It checks, in order:
// 1. the operator token header / config-based admin lists
// 2. the role claim in the JWT
// 3. the users.role column
// The resolved role is stashed in context for the handlers' actor.
func ModeratorRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return requireRole(db, cfg, workflow.RoleModerator)
}

// AdminRequired admits admins only.
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return requireRole(db, cfg, workflow.RoleAdmin)
}

func requireRole(db *gorm.DB, cfg *config.Config, required workflow.Role) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)
	adminUserIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		// Operator token bypass (deploy tooling, oncall scripts).
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			identity.SetResolvedRole(c, workflow.RoleAdmin)
			return c.Next()
		}

		userID, err := identity.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		// Config-based admin lists.
		if contains(adminEmails, identity.GetEmail(c)) || contains(adminUserIDs, userID.String()) {
			identity.SetResolvedRole(c, workflow.RoleAdmin)
			return c.Next()
		}

		role := identity.GetRole(c)
		if role != workflow.RoleAdmin && role != workflow.RoleModerator {
			// Claim may predate a role change; check the users table.
			var user models.User
			if err := db.First(&user, "id = ?", userID).Error; err == nil {
				switch user.Role {
				case string(workflow.RoleAdmin):
					role = workflow.RoleAdmin
				case string(workflow.RoleModerator):
					role = workflow.RoleModerator
				}
			}
		}

		if role == workflow.RoleAdmin || (required == workflow.RoleModerator && role == workflow.RoleModerator) {
			identity.SetResolvedRole(c, role)
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Moderator access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
