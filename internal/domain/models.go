package domain

// Business is the tenant boundary: every product, user and sale belongs to
// exactly one.
type Business struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Code      string `db:"code"` // join code entered at registration
	CreatedAt string `db:"created_at"`
}

type Product struct {
	ID         string  `db:"id"`
	BusinessID string  `db:"business_id"`
	Name       string  `db:"name"`
	Price      float64 `db:"price"`
	Stock      int     `db:"stock"`
	Barcode    string  `db:"barcode"` // optional; unique per business when set
	CreatedAt  string  `db:"created_at"`
	UpdatedAt  string  `db:"updated_at"`
}

// Sale is one committed ledger record. Immutable once written.
type Sale struct {
	ID         string  `db:"id"`
	BusinessID string  `db:"business_id"`
	UserID     string  `db:"user_id"`
	Total      float64 `db:"total"`
	CreatedAt  string  `db:"created_at"`
}

// SaleItem snapshots name and unit price at commit time so later product
// edits do not rewrite history.
type SaleItem struct {
	SaleID    string  `db:"sale_id"`
	ProductID string  `db:"product_id"`
	Name      string  `db:"name"`
	Qty       int     `db:"qty"`
	UnitPrice float64 `db:"unit_price"`
	Subtotal  float64 `db:"subtotal"`
}
