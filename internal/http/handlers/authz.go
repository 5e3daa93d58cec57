package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tillpoint/internal/domain"
	applog "tillpoint/internal/log"
	"tillpoint/internal/services"
)

// RequireUser enforces a logged-in, active user; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || !u.Active {
			return c.Redirect("/login")
		}
		c.Locals("user", u)
		c.Locals("business_id", u.BusinessID)
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || !u.Active || u.Role != domain.RoleAdmin {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return c.Status(fiber.StatusForbidden).Render("error", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		c.Locals("business_id", u.BusinessID)
		return c.Next()
	}
}

// currentUser pulls the user RequireUser placed on the context.
func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
