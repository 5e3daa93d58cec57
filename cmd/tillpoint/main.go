package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"tillpoint/internal/config"
	"tillpoint/internal/http/handlers"
	applog "tillpoint/internal/log"
	"tillpoint/internal/repos"
	"tillpoint/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN, cfg.SeedDemo)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	bizRepo := repos.NewBusinessRepo(db)
	authSvc := &services.AuthService{Users: userRepo, Businesses: bizRepo}

	// Templates & app
	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Log and show a friendly message
			applog.Error(c, "server.error", err, nil)
			if rerr := c.Status(fiber.StatusInternalServerError).Render("error", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("business_id", u.BusinessID)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf")})
			return c.Status(fiber.StatusForbidden).Render("error", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Static("/static", "./web/static")

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc)

	// Auth routes (login throttled)
	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	app.Get("/register", deps.AuthHandler.RegisterForm)
	app.Post("/register", deps.AuthHandler.Register)
	app.Post("/logout", deps.AuthHandler.Logout)

	// Selling: catalog + cart + commit
	sell := app.Group("/", handlers.RequireUser(authSvc))
	sell.Get("/sell", deps.SellHandler.Screen)
	sell.Post("/cart", deps.SellHandler.AddToCart)
	sell.Post("/cart/qty", deps.SellHandler.SetQty)
	sell.Post("/cart/remove", deps.SellHandler.RemoveLine)
	sell.Post("/cart/clear", deps.SellHandler.ClearCart)
	sell.Post("/sale", deps.SellHandler.Commit)
	sell.Get("/sale/:id", deps.SellHandler.Receipt)

	// Barcode lookup API (scanner input)
	api := app.Group("/api/v1", handlers.RequireUser(authSvc))
	api.Get("/scan", limiter.New(limiter.Config{
		Max:        30,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|scan"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.scan.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), deps.SellHandler.Scan)

	// Catalog management & analytics
	sell.Get("/products", deps.ProductHandler.List)
	sell.Post("/products", deps.ProductHandler.Create)
	sell.Post("/products/:id/delete", deps.ProductHandler.Delete)
	sell.Post("/products/:id/stock", deps.ProductHandler.SetStock)
	sell.Get("/analytics", deps.AnalyticsHandler.Screen)

	// Admin: user management
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/users", deps.UsersHandler.List)
	admin.Post("/users", deps.UsersHandler.Create)
	admin.Post("/users/:id/toggle", deps.UsersHandler.ToggleActive)

	// Health & root
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/sell") })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("error", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
