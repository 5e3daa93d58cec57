package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"tillpoint/internal/cart"
	applog "tillpoint/internal/log"
	"tillpoint/internal/services"
	"tillpoint/internal/validate"
)

type AuthHandler struct {
	Auth  *services.AuthService
	Carts *cart.Store
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	username, okU := validate.Username(c.FormValue("username"))
	pin := c.FormValue("pin")
	if !okU || !validate.PIN(pin) {
		applog.Security(c, "auth.login.fail", map[string]any{"username": username, "reason": "bad_format"})
		return c.Status(401).Render("login", fiber.Map{"Err": "Invalid username or PIN"})
	}

	_, err := h.Auth.Login(sid, username, pin)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"username": username})
		return c.Status(401).Render("login", fiber.Map{"Err": "Invalid username or PIN"})
	}

	applog.Audit(c, "auth.login.success", map[string]any{"username": username})
	return c.Redirect("/sell")
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{"Err": ""})
}

// Register joins an existing business by code and creates a seller account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	sid := ensureSID(c)
	code, okC := validate.BusinessCode(c.FormValue("code"))
	username, okU := validate.Username(c.FormValue("username"))
	pin := c.FormValue("pin")
	if !okC || !okU || !validate.PIN(pin) {
		applog.Security(c, "auth.register.fail", map[string]any{"reason": "bad_format"})
		return c.Status(400).Render("register", fiber.Map{"Err": "Check the business code, username and 4-digit PIN"})
	}

	u, err := h.Auth.Register(sid, code, username, pin)
	if err != nil {
		applog.Security(c, "auth.register.fail", map[string]any{"code": code, "username": username, "error": err.Error()})
		return c.Status(400).Render("register", fiber.Map{"Err": "Could not create the account. Check the business code or pick another username."})
	}

	applog.Audit(c, "auth.register.success", map[string]any{"user_id": u.ID, "business_id": u.BusinessID})
	return c.Redirect("/sell")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	h.Carts.Drop(sid)
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/login")
}
