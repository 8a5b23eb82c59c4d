package identity

import (
	"errors"

	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// GetEmail extracts the email claim, empty when absent.
func GetEmail(c *fiber.Ctx) string {
	if token, ok := c.Locals("user").(*jwt.Token); ok {
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if email, ok := claims["email"].(string); ok {
				return email
			}
		}
	}
	return ""
}

// GetRole extracts the role claim; unauthenticated or unlabeled subjects are
// members. The moderator middleware upgrades this from the users table when
// the claim is stale.
func GetRole(c *fiber.Ctx) workflow.Role {
	if role, ok := c.Locals("resolved_role").(workflow.Role); ok {
		return role
	}
	if token, ok := c.Locals("user").(*jwt.Token); ok {
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			switch claims["role"] {
			case string(workflow.RoleAdmin):
				return workflow.RoleAdmin
			case string(workflow.RoleModerator):
				return workflow.RoleModerator
			}
		}
	}
	return workflow.RoleMember
}

// SetResolvedRole stores a DB-verified role for the rest of the request.
func SetResolvedRole(c *fiber.Ctx, role workflow.Role) {
	c.Locals("resolved_role", role)
}

// Actor bundles the caller's identity for the workflow engine.
func Actor(c *fiber.Ctx) (workflow.Actor, error) {
	userID, err := GetUserID(c)
	if err != nil {
		return workflow.Actor{}, err
	}
	return workflow.Actor{ID: userID, Role: GetRole(c)}, nil
}
