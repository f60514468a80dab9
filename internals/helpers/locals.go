package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys hydrated by the auth middleware.
const (
	LocUserID    = "user_id"
	LocCollegeID = "college_id"
	LocRole      = "role"
)

func GetUserUUID(c *fiber.Ctx) uuid.UUID {
	if raw := c.Locals(LocUserID); raw != nil {
		if s, ok := raw.(string); ok {
			if parsed, err := uuid.Parse(s); err == nil {
				return parsed
			}
		}
	}

	// header fallback (internal service calls)
	if header := c.Get("X-User-Id"); header != "" {
		if parsed, err := uuid.Parse(header); err == nil {
			return parsed
		}
	}

	return uuid.Nil
}

func GetCollegeUUID(c *fiber.Ctx) uuid.UUID {
	if raw := c.Locals(LocCollegeID); raw != nil {
		if s, ok := raw.(string); ok {
			if parsed, err := uuid.Parse(s); err == nil {
				return parsed
			}
		}
	}
	return uuid.Nil
}

func GetRole(c *fiber.Ctx) string {
	if raw := c.Locals(LocRole); raw != nil {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}

func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Params(name)))
}
