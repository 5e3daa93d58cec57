package handlers

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"tillpoint/internal/cart"
	applog "tillpoint/internal/log"
	"tillpoint/internal/repos"
	"tillpoint/internal/services"
	"tillpoint/internal/validate"
)

type SellHandler struct {
	Catalog  *services.CatalogService
	Sales    *services.SaleService
	SaleRepo *repos.SaleRepo
	Carts    *cart.Store
}

// CartView is what the sell template renders for the floating cart.
type CartView struct {
	Lines []cart.Line
	Total float64
}

func redirectErr(c *fiber.Ctx, msg string) error {
	return c.Redirect("/sell?err=" + url.QueryEscape(msg))
}

func (h *SellHandler) cartView(sid string) CartView {
	var v CartView
	_ = h.Carts.With(sid, func(cc *cart.Cart) error {
		v = CartView{Lines: cc.Lines(), Total: cc.Total()}
		return nil
	})
	return v
}

// Screen renders the catalog plus the current cart. Products are re-read on
// every load so the stock shown (and checked on add) is as fresh as it gets.
func (h *SellHandler) Screen(c *fiber.Ctx) error {
	sid := ensureSID(c)
	u := currentUser(c)

	q := ""
	if raw := strings.TrimSpace(c.Query("q")); raw != "" {
		var ok bool
		if q, ok = validate.Q(raw); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "q"})
			c.Status(400)
			return render(c, "sell", fiber.Map{
				"Products": []any{}, "Cart": h.cartView(sid), "Q": "",
				"Err": "Enter a valid search (letters/numbers only)",
			})
		}
		q = strings.ToLower(q)
	}

	products, err := h.Catalog.Search(u.BusinessID, q)
	if err != nil {
		applog.Error(c, "sell.load", err, nil)
		return c.Status(500).Render("error", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "sell", fiber.Map{"Products": products, "Cart": h.cartView(sid), "Q": q, "Err": c.Query("err")})
}

// AddToCart validates against a freshly fetched product snapshot.
func (h *SellHandler) AddToCart(c *fiber.Ctx) error {
	sid := ensureSID(c)
	u := currentUser(c)

	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"))

	p, err := h.Catalog.Get(u.BusinessID, productID)
	if err != nil {
		applog.Error(c, "cart.add.lookup", err, map[string]any{"product_id": productID})
		return redirectErr(c, "Product not found")
	}

	snap := cart.ProductSnapshot{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}
	err = h.Carts.With(sid, func(cc *cart.Cart) error { return cc.Add(snap, qty) })
	switch {
	case errors.Is(err, cart.ErrOutOfStock):
		return redirectErr(c, "Product is out of stock")
	case errors.Is(err, cart.ErrInsufficientStock):
		return redirectErr(c, "Not enough stock for that quantity")
	case err != nil:
		applog.Error(c, "cart.add", err, map[string]any{"product_id": productID})
		return c.Status(500).Render("error", fiber.Map{"Message": "Could not update the cart"})
	}
	return c.Redirect("/sell")
}

// SetQty updates a line quantity; 0 removes the line.
func (h *SellHandler) SetQty(c *fiber.Ctx) error {
	sid := ensureSID(c)
	u := currentUser(c)

	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}
	qty, err := strconv.Atoi(strings.TrimSpace(c.FormValue("qty")))
	if err != nil || qty < 0 {
		return c.Status(400).SendString("invalid qty")
	}

	knownStock := 0
	if p, err := h.Catalog.Get(u.BusinessID, productID); err == nil {
		knownStock = p.Stock
	}

	err = h.Carts.With(sid, func(cc *cart.Cart) error {
		return cc.SetQuantity(productID, qty, knownStock)
	})
	if errors.Is(err, cart.ErrInsufficientStock) {
		return redirectErr(c, "Not enough stock for that quantity")
	}
	if err != nil {
		applog.Error(c, "cart.qty", err, map[string]any{"product_id": productID})
		return c.Status(500).Render("error", fiber.Map{"Message": "Could not update the cart"})
	}
	return c.Redirect("/sell")
}

func (h *SellHandler) RemoveLine(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}
	_ = h.Carts.With(sid, func(cc *cart.Cart) error { cc.Remove(productID); return nil })
	return c.Redirect("/sell")
}

func (h *SellHandler) ClearCart(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Carts.With(sid, func(cc *cart.Cart) error { cc.Clear(); return nil })
	return c.Redirect("/sell")
}

// Commit runs the sale workflow. Remote failures surface as-is; nothing is
// retried here.
func (h *SellHandler) Commit(c *fiber.Ctx) error {
	sid := ensureSID(c)
	u := currentUser(c)

	// Hold the store lock for the whole commit so overlapping requests on
	// the same session cannot mutate the cart between snapshot and clear.
	var receipt services.Receipt
	err := h.Carts.With(sid, func(cc *cart.Cart) error {
		var cerr error
		receipt, cerr = h.Sales.Commit(u, cc)
		return cerr
	})
	if err != nil {
		var perr *services.PartialStockUpdateError
		var lerr *services.LedgerWriteError
		switch {
		case errors.Is(err, cart.ErrEmptyCart):
			return redirectErr(c, "Cart is empty")
		case errors.As(err, &perr):
			applog.Error(c, "sale.commit.partial", err, map[string]any{
				"sale_id": perr.SaleID, "updated": perr.Updated, "failed": perr.Failed,
				"rolled_back": perr.RolledBack,
			})
			return c.Status(fiber.StatusConflict).Render("error", fiber.Map{
				"Message": "The sale was recorded but some stock counts were not updated. Review stock for: " + strings.Join(perr.Failed, ", "),
			})
		case errors.As(err, &lerr):
			applog.Error(c, "sale.commit.ledger", err, nil)
			return c.Status(fiber.StatusBadGateway).Render("error", fiber.Map{
				"Message": "The sale could not be recorded. Your cart is unchanged; try again.",
			})
		default:
			applog.Error(c, "sale.commit", err, nil)
			return c.Status(500).Render("error", fiber.Map{"Message": "Something went wrong. Please try again."})
		}
	}

	applog.Audit(c, "sale.commit", map[string]any{
		"sale_id": receipt.SaleID, "total": receipt.Total, "items": receipt.Items,
	})
	return c.Redirect("/sale/" + receipt.SaleID)
}

// Receipt shows a committed sale.
func (h *SellHandler) Receipt(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(404).Render("error", fiber.Map{"Message": "Sale not found"})
	}
	sale, items, err := h.SaleRepo.Get(u.BusinessID, id)
	if err != nil {
		return c.Status(404).Render("error", fiber.Map{"Message": "Sale not found"})
	}
	return render(c, "receipt", fiber.Map{"Sale": sale, "Items": items})
}

// Scan resolves a barcode to a product as JSON (scanner input posts here).
func (h *SellHandler) Scan(c *fiber.Ctx) error {
	u := currentUser(c)
	code, ok := validate.Barcode(c.Query("code"))
	if !ok || code == "" {
		return c.Status(400).JSON(fiber.Map{"error": "invalid barcode"})
	}
	p, err := h.Catalog.Scan(u.BusinessID, code)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "no product with that barcode"})
	}
	return c.JSON(fiber.Map{"id": p.ID, "name": p.Name, "price": p.Price, "stock": p.Stock})
}
