package repos

import (
	"github.com/jmoiron/sqlx"

	"tillpoint/internal/domain"
)

type SaleRepo struct{ db *sqlx.DB }

func NewSaleRepo(db *sqlx.DB) *SaleRepo { return &SaleRepo{db: db} }

// Create writes the sale header and its items as one unit. This is the
// single ledger insert of the commit workflow; stock decrements are separate
// calls with no shared transaction.
func (r *SaleRepo) Create(sale domain.Sale, items []domain.SaleItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO sales(id,business_id,user_id,total,created_at)
	  VALUES(?,?,?,?,CURRENT_TIMESTAMP)
	`, sale.ID, sale.BusinessID, sale.UserID, sale.Total); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO sale_items(sale_id,product_id,name,qty,unit_price,subtotal)
		  VALUES(?,?,?,?,?,?)
		`, sale.ID, it.ProductID, it.Name, it.Qty, it.UnitPrice, it.Subtotal); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes a sale and its items. Only used by the fail-closed rollback
// policy after a partial stock update.
func (r *SaleRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM sales WHERE id = ?`, id)
	return err
}

func (r *SaleRepo) Get(businessID, id string) (domain.Sale, []domain.SaleItem, error) {
	var s domain.Sale
	if err := r.db.Get(&s, `
	  SELECT id, business_id, user_id, total, created_at
	  FROM sales WHERE business_id = ? AND id = ?
	`, businessID, id); err != nil {
		return domain.Sale{}, nil, err
	}
	var items []domain.SaleItem
	if err := r.db.Select(&items, `
	  SELECT sale_id, product_id, name, qty, unit_price, subtotal
	  FROM sale_items WHERE sale_id = ?
	`, id); err != nil {
		return domain.Sale{}, nil, err
	}
	return s, items, nil
}

// ---------- Analytics queries ----------

type SaleSummary struct {
	ID        string  `db:"id"`
	Username  string  `db:"username"`
	Total     float64 `db:"total"`
	ItemCount int     `db:"item_count"`
	CreatedAt string  `db:"created_at"`
}

func (r *SaleRepo) ListRecent(businessID string, limit int) ([]SaleSummary, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []SaleSummary
	err := r.db.Select(&out, `
	  SELECT s.id, COALESCE(u.username,'') AS username, s.total,
	         (SELECT COUNT(*) FROM sale_items si WHERE si.sale_id = s.id) AS item_count,
	         s.created_at
	  FROM sales s
	  LEFT JOIN users u ON u.id = s.user_id
	  WHERE s.business_id = ?
	  ORDER BY datetime(s.created_at) DESC
	  LIMIT ?
	`, businessID, limit)
	return out, err
}

type TodayStats struct {
	SaleCount int     `db:"sale_count"`
	Revenue   float64 `db:"revenue"`
	UnitsSold int     `db:"units_sold"`
}

func (r *SaleRepo) Today(businessID string) (TodayStats, error) {
	var st TodayStats
	err := r.db.Get(&st, `
	  SELECT
	    (SELECT COUNT(*) FROM sales
	       WHERE business_id = ? AND date(created_at) = date('now')) AS sale_count,
	    (SELECT COALESCE(SUM(total),0) FROM sales
	       WHERE business_id = ? AND date(created_at) = date('now')) AS revenue,
	    (SELECT COALESCE(SUM(si.qty),0) FROM sale_items si
	       JOIN sales s ON s.id = si.sale_id
	       WHERE s.business_id = ? AND date(s.created_at) = date('now')) AS units_sold
	`, businessID, businessID, businessID)
	return st, err
}

type ProductRank struct {
	Name  string `db:"name"`
	Units int    `db:"units"`
}

// TopProducts ranks products by units sold across the whole ledger.
func (r *SaleRepo) TopProducts(businessID string, limit int) ([]ProductRank, error) {
	if limit <= 0 {
		limit = 4
	}
	var out []ProductRank
	err := r.db.Select(&out, `
	  SELECT si.name, SUM(si.qty) AS units
	  FROM sale_items si
	  JOIN sales s ON s.id = si.sale_id
	  WHERE s.business_id = ?
	  GROUP BY si.name
	  ORDER BY units DESC
	  LIMIT ?
	`, businessID, limit)
	return out, err
}
