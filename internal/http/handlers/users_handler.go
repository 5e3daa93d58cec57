package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "tillpoint/internal/log"
	"tillpoint/internal/repos"
	"tillpoint/internal/services"
	"tillpoint/internal/validate"
)

type UsersHandler struct {
	Users *repos.UserRepo
	Auth  *services.AuthService
}

// GET /admin/users
func (h *UsersHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	users, err := h.Users.ListByBusiness(u.BusinessID)
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return c.Status(500).Render("error", fiber.Map{"Message": "Could not load users"})
	}
	return render(c, "users", fiber.Map{"Users": users, "Self": u.ID})
}

// POST /admin/users
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)

	username, okU := validate.Username(c.FormValue("username"))
	pin := c.FormValue("pin")
	role, okR := validate.Role(c.FormValue("role"))
	if !okU || !okR || !validate.PIN(pin) {
		applog.Security(c, "validation.fail", map[string]any{"form": "user.create"})
		return c.Status(400).SendString("invalid input")
	}

	nu, err := h.Auth.CreateUser(u.BusinessID, username, pin, role)
	if err != nil {
		applog.Error(c, "admin.users.create.fail", err, map[string]any{"username": username})
		return c.Status(400).SendString("could not create user (username taken?)")
	}
	applog.Audit(c, "admin.users.create", map[string]any{"user_id": nu.ID, "role": role})
	return c.Redirect("/admin/users")
}

// POST /admin/users/:id/toggle flips the active flag. Admins cannot
// deactivate themselves.
func (h *UsersHandler) ToggleActive(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	if id == u.ID {
		return c.Status(400).SendString("cannot deactivate yourself")
	}
	target, err := h.Users.ByID(id)
	if err != nil || target.BusinessID != u.BusinessID {
		return c.Status(404).SendString("user not found")
	}
	if err := h.Users.SetActive(u.BusinessID, id, !target.Active); err != nil {
		applog.Error(c, "admin.users.toggle.fail", err, map[string]any{"user_id": id})
		return c.Status(400).SendString("could not update user")
	}
	applog.Audit(c, "admin.users.toggle", map[string]any{"user_id": id, "active": !target.Active})
	return c.Redirect("/admin/users")
}
