package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tillpoint/internal/cart"
	"tillpoint/internal/config"
	"tillpoint/internal/domain"
	"tillpoint/internal/repos"
)

// LedgerWriteError wraps a failed sale insert. Nothing was written; the cart
// is untouched and the whole commit may be retried.
type LedgerWriteError struct{ Err error }

func (e *LedgerWriteError) Error() string { return "ledger write failed: " + e.Err.Error() }
func (e *LedgerWriteError) Unwrap() error { return e.Err }

// PartialStockUpdateError reports a commit whose ledger insert succeeded but
// whose stock decrements did not all land. Updated and Failed name the
// product ids on each side of the break. RolledBack tells whether the sale
// record was deleted again (fail-closed policy) or kept for manual
// reconciliation (fail-open).
type PartialStockUpdateError struct {
	SaleID     string
	Updated    []string
	Failed     []string
	RolledBack bool
	Err        error
}

func (e *PartialStockUpdateError) Error() string {
	return fmt.Sprintf("sale %s: stock update incomplete (updated: %s; failed: %s): %v",
		e.SaleID, strings.Join(e.Updated, ","), strings.Join(e.Failed, ","), e.Err)
}

func (e *PartialStockUpdateError) Unwrap() error { return e.Err }

// Receipt is what a successful commit hands back to the view layer.
type Receipt struct {
	SaleID string
	Total  float64
	Items  int
}

type SaleService struct {
	Sales    *repos.SaleRepo
	Prods    *repos.ProductRepo
	Rollback config.RollbackPolicy
}

func NewSaleService(sales *repos.SaleRepo, prods *repos.ProductRepo, rollback config.RollbackPolicy) *SaleService {
	return &SaleService{Sales: sales, Prods: prods, Rollback: rollback}
}

// Commit turns a non-empty cart into one sale record plus per-line stock
// decrements. The two phases are independent writes with no shared
// transaction: a decrement failure after the insert leaves the ledger ahead
// of stock, which is surfaced (never retried) as PartialStockUpdateError.
// The cart is cleared only on full success.
func (s *SaleService) Commit(user *domain.User, c *cart.Cart) (Receipt, error) {
	lines := c.Lines()
	if len(lines) == 0 {
		return Receipt{}, cart.ErrEmptyCart
	}

	// Phase 1: build line items locally, before any DB call.
	items := make([]domain.SaleItem, 0, len(lines))
	total := 0.0
	for _, l := range lines {
		items = append(items, domain.SaleItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		})
		total += l.Subtotal()
	}

	// Phase 2: one ledger insert.
	sale := domain.Sale{
		ID:         uuid.NewString(),
		BusinessID: user.BusinessID,
		UserID:     user.ID,
		Total:      total,
	}
	if err := s.Sales.Create(sale, items); err != nil {
		return Receipt{}, &LedgerWriteError{Err: err}
	}

	// Phase 3: sequential conditional decrements, in cart order. The store
	// enforces stock >= qty, so a stale cart-side check fails here instead
	// of overselling.
	updated := make([]string, 0, len(lines))
	for i, l := range lines {
		if err := s.Prods.DecrementStock(user.BusinessID, l.ProductID, l.Qty); err != nil {
			failed := make([]string, 0, len(lines)-i)
			for _, rest := range lines[i:] {
				failed = append(failed, rest.ProductID)
			}
			perr := &PartialStockUpdateError{
				SaleID:  sale.ID,
				Updated: updated,
				Failed:  failed,
				Err:     err,
			}
			if s.Rollback == config.RollbackDelete {
				if derr := s.Sales.Delete(sale.ID); derr == nil {
					perr.RolledBack = true
				}
			}
			return Receipt{}, perr
		}
		updated = append(updated, l.ProductID)
	}

	c.Clear()
	return Receipt{SaleID: sale.ID, Total: total, Items: len(items)}, nil
}
