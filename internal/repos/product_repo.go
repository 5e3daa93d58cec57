package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"tillpoint/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, business_id, name, price, stock, COALESCE(barcode,'') AS barcode,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) ListByBusiness(businessID string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE business_id = ?
	  ORDER BY LOWER(name)
	`, businessID)
	return out, err
}

func (r *ProductRepo) Get(businessID, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE business_id = ? AND id = ?
	`, businessID, id)
	return p, err
}

// ByBarcode resolves an exact barcode within one business (scanner lookup).
func (r *ProductRepo) ByBarcode(businessID, code string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE business_id = ? AND barcode = ?
	`, businessID, code)
	return p, err
}

// Search matches a name substring or exact barcode.
func (r *ProductRepo) Search(businessID, q string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE business_id = ? AND (LOWER(name) LIKE ? OR barcode = ?)
	  ORDER BY LOWER(name)
	`, businessID, "%"+q+"%", q)
	return out, err
}

func (r *ProductRepo) Create(p domain.Product) error {
	var barcode any
	if p.Barcode != "" {
		barcode = p.Barcode
	}
	_, err := r.db.Exec(`
	  INSERT INTO products(id,business_id,name,price,stock,barcode,created_at)
	  VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, p.ID, p.BusinessID, p.Name, p.Price, p.Stock, barcode)
	return err
}

func (r *ProductRepo) Delete(businessID, id string) error {
	_, err := r.db.Exec(`DELETE FROM products WHERE business_id = ? AND id = ?`, businessID, id)
	return err
}

// SetStock overwrites the stock count (manual adjustment path).
func (r *ProductRepo) SetStock(businessID, id string, stock int) error {
	_, err := r.db.Exec(`
	  UPDATE products SET stock = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE business_id = ? AND id = ?
	`, stock, businessID, id)
	return err
}

// DecrementStock subtracts "by" units only if enough stock exists. The check
// runs inside the store, so concurrent sessions cannot both take the same
// unit. Returns an error when the guard leaves zero rows affected.
func (r *ProductRepo) DecrementStock(businessID, id string, by int) error {
	res, err := r.db.Exec(`
	  UPDATE products
	  SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
	  WHERE business_id = ? AND id = ? AND stock >= ?
	`, by, businessID, id, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("insufficient stock for %s", id)
	}
	return nil
}

// LowStockCount counts products under the given threshold (dashboard badge).
func (r *ProductRepo) LowStockCount(businessID string, threshold int) (int, error) {
	var n int
	err := r.db.Get(&n, `
	  SELECT COUNT(*) FROM products WHERE business_id = ? AND stock < ?
	`, businessID, threshold)
	return n, err
}
