package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "tillpoint/internal/log"
	"tillpoint/internal/services"
	"tillpoint/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	products, err := h.Catalog.List(u.BusinessID)
	if err != nil {
		applog.Error(c, "products.list.fail", err, nil)
		return c.Status(500).Render("error", fiber.Map{"Message": "Could not load products"})
	}
	low, _ := h.Catalog.LowStockCount(u.BusinessID)
	return render(c, "products", fiber.Map{"Products": products, "LowStock": low})
}

// POST /products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)

	name, okN := validate.Name(c.FormValue("name"))
	price, okP := validate.Price(c.FormValue("price"))
	barcode, okB := validate.Barcode(c.FormValue("barcode"))
	stock := 0
	if s := strings.TrimSpace(c.FormValue("stock")); s != "" {
		var okS bool
		if stock, okS = validate.Stock(s); !okS {
			return c.Status(400).SendString("invalid stock")
		}
	}
	if !okN || !okP || !okB {
		applog.Security(c, "validation.fail", map[string]any{"form": "product.create"})
		return c.Status(400).SendString("invalid input")
	}

	p, err := h.Catalog.Create(u.BusinessID, name, price, stock, barcode)
	if err != nil {
		applog.Error(c, "products.create.fail", err, map[string]any{"name": name})
		return c.Status(400).SendString("could not create product (duplicate barcode?)")
	}
	applog.Audit(c, "products.create", map[string]any{"product_id": p.ID, "name": name})
	return c.Redirect("/products")
}

// POST /products/:id/delete
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Catalog.Delete(u.BusinessID, id); err != nil {
		applog.Error(c, "products.delete.fail", err, map[string]any{"product_id": id})
		return c.Status(400).SendString("could not delete product")
	}
	applog.Audit(c, "products.delete", map[string]any{"product_id": id})
	return c.Redirect("/products")
}

// POST /products/:id/stock — direct stock adjustment (set an absolute count).
func (h *ProductHandler) SetStock(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	stock, err := strconv.Atoi(strings.TrimSpace(c.FormValue("stock")))
	if err != nil {
		return c.Status(400).SendString("invalid stock")
	}
	if err := h.Catalog.SetStock(u.BusinessID, id, stock); err != nil {
		applog.Error(c, "products.stock.fail", err, map[string]any{"product_id": id})
		return c.Status(400).SendString("could not update stock")
	}
	applog.Audit(c, "products.stock", map[string]any{"product_id": id, "stock": stock})
	return c.Redirect("/products")
}
