// Package cart holds the in-memory sale cart. It never talks to the
// database: every stock check runs against the product snapshot the caller
// fetched, which may be stale. The commit path re-checks stock with a
// conditional update, so a stale pass here can only fail later, never
// oversell silently.
package cart

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrInsufficientStock = errors.New("not enough stock for requested quantity")
)

// ProductSnapshot is the locally known state of a product, valid only at
// fetch time.
type ProductSnapshot struct {
	ID    string
	Name  string
	Price float64
	Stock int
}

// Line is an immutable snapshot of a product at add time plus a quantity.
// Later product edits do not affect lines already in the cart.
type Line struct {
	ProductID string
	Name      string
	UnitPrice float64
	Qty       int
}

func (l Line) Subtotal() float64 { return float64(l.Qty) * l.UnitPrice }

// FitsStock is the single stock predicate used at every mutation point.
func FitsStock(qty, knownStock int) bool { return qty <= knownStock }

// Cart accumulates lines in insertion order. Not safe for concurrent use;
// Store serializes access per session.
type Cart struct {
	lines []Line
}

func New() *Cart { return &Cart{} }

// Add inserts a new line for p or increases the existing one. The failed
// call leaves the cart unchanged.
func (c *Cart) Add(p ProductSnapshot, qty int) error {
	if qty < 1 {
		qty = 1
	}
	if p.Stock <= 0 {
		return ErrOutOfStock
	}
	for i, l := range c.lines {
		if l.ProductID == p.ID {
			if !FitsStock(l.Qty+qty, p.Stock) {
				return ErrInsufficientStock
			}
			c.lines[i].Qty += qty
			return nil
		}
	}
	if !FitsStock(qty, p.Stock) {
		return ErrInsufficientStock
	}
	c.lines = append(c.lines, Line{ProductID: p.ID, Name: p.Name, UnitPrice: p.Price, Qty: qty})
	return nil
}

// SetQuantity updates a line in place. qty < 1 removes the line.
func (c *Cart) SetQuantity(productID string, qty int, knownStock int) error {
	if qty < 1 {
		c.Remove(productID)
		return nil
	}
	for i, l := range c.lines {
		if l.ProductID == productID {
			if !FitsStock(qty, knownStock) {
				return ErrInsufficientStock
			}
			c.lines[i].Qty = qty
			return nil
		}
	}
	return nil // absent line: nothing to update
}

// Remove is idempotent; removing an absent line is a no-op.
func (c *Cart) Remove(productID string) {
	for i, l := range c.lines {
		if l.ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) Total() float64 {
	total := 0.0
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// Lines returns a copy in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Clear() { c.lines = nil }
