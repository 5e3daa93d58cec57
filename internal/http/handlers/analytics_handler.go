package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "tillpoint/internal/log"
	"tillpoint/internal/services"
)

type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
	Catalog   *services.CatalogService
}

// GET /analytics
func (h *AnalyticsHandler) Screen(c *fiber.Ctx) error {
	u := currentUser(c)
	dash, err := h.Analytics.Dashboard(u.BusinessID)
	if err != nil {
		applog.Error(c, "analytics.load", err, nil)
		return c.Status(500).Render("error", fiber.Map{"Message": "Could not load analytics"})
	}
	low, _ := h.Catalog.LowStockCount(u.BusinessID)
	return render(c, "analytics", fiber.Map{
		"Today":    dash.Today,
		"Recent":   dash.RecentSales,
		"Top":      dash.TopProducts,
		"LowStock": low,
	})
}
