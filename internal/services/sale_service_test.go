package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"tillpoint/internal/cart"
	"tillpoint/internal/config"
	"tillpoint/internal/domain"
	"tillpoint/internal/repos"
	"tillpoint/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	schema := `
	CREATE TABLE businesses(id TEXT PRIMARY KEY, name TEXT, code TEXT UNIQUE, created_at TEXT);
	CREATE TABLE users(id TEXT PRIMARY KEY, business_id TEXT, username TEXT, pin_hash TEXT,
	  role TEXT, active INTEGER, created_at TEXT);
	CREATE TABLE products(id TEXT PRIMARY KEY, business_id TEXT, name TEXT, price NUMERIC,
	  stock INTEGER, barcode TEXT, created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE sales(id TEXT PRIMARY KEY, business_id TEXT, user_id TEXT, total NUMERIC,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE sale_items(sale_id TEXT, product_id TEXT, name TEXT, qty INTEGER,
	  unit_price NUMERIC, subtotal NUMERIC, PRIMARY KEY(sale_id, product_id));

	INSERT INTO businesses(id,name,code) VALUES ('biz-1','Test Kiosk','TEST01');
	INSERT INTO users(id,business_id,username,pin_hash,role,active)
	  VALUES ('u-1','biz-1','vendor','x','SELLER',1);
	INSERT INTO products(id,business_id,name,price,stock,barcode) VALUES
	  ('p-cola','biz-1','Cola',100,5,'111'),
	  ('p-chips','biz-1','Chips',50,1,'222'),
	  ('p-water','biz-1','Water',30,0,'333');
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

func seller() *domain.User {
	return &domain.User{ID: "u-1", BusinessID: "biz-1", Username: "vendor", Role: domain.RoleSeller, Active: true}
}

func addProduct(t *testing.T, db *sqlx.DB, c *cart.Cart, id string, qty int) {
	t.Helper()
	var p domain.Product
	require.NoError(t, db.Get(&p, `SELECT id,business_id,name,price,stock,COALESCE(barcode,'') AS barcode,
	  COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at
	  FROM products WHERE id=?`, id))
	require.NoError(t, c.Add(cart.ProductSnapshot{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}, qty))
}

func TestCommitSuccess(t *testing.T) {
	db := memdb(t)
	svc := services.NewSaleService(repos.NewSaleRepo(db), repos.NewProductRepo(db), config.RollbackKeep)

	c := cart.New()
	addProduct(t, db, c, "p-cola", 2)

	receipt, err := svc.Commit(seller(), c)
	require.NoError(t, err)
	assert.Equal(t, 200.0, receipt.Total)
	assert.Equal(t, 1, receipt.Items)

	// one ledger record with the right total
	var total float64
	require.NoError(t, db.Get(&total, `SELECT total FROM sales WHERE id=?`, receipt.SaleID))
	assert.Equal(t, 200.0, total)

	// stock decremented 5 -> 3
	var stock int
	require.NoError(t, db.Get(&stock, `SELECT stock FROM products WHERE id='p-cola'`))
	assert.Equal(t, 3, stock)

	// cart cleared
	assert.Equal(t, 0, c.Len())
}

func TestCommitEmptyCartTouchesNothing(t *testing.T) {
	db := memdb(t)
	svc := services.NewSaleService(repos.NewSaleRepo(db), repos.NewProductRepo(db), config.RollbackKeep)

	_, err := svc.Commit(seller(), cart.New())
	require.ErrorIs(t, err, cart.ErrEmptyCart)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sales`))
	assert.Equal(t, 0, n)
}

func TestCommitTotalsMatchLineItems(t *testing.T) {
	db := memdb(t)
	svc := services.NewSaleService(repos.NewSaleRepo(db), repos.NewProductRepo(db), config.RollbackKeep)

	c := cart.New()
	addProduct(t, db, c, "p-cola", 3)
	addProduct(t, db, c, "p-chips", 1)

	receipt, err := svc.Commit(seller(), c)
	require.NoError(t, err)

	var itemSum float64
	require.NoError(t, db.Get(&itemSum, `SELECT SUM(subtotal) FROM sale_items WHERE sale_id=?`, receipt.SaleID))
	assert.Equal(t, receipt.Total, itemSum)

	var sub float64
	require.NoError(t, db.Get(&sub, `SELECT subtotal FROM sale_items WHERE sale_id=? AND product_id='p-cola'`, receipt.SaleID))
	assert.Equal(t, 300.0, sub) // qty * unit_price
}

// A concurrent session drains the stock between add and commit. The ledger
// insert succeeds, the decrement hits the conditional guard, and the error
// names the product that was left behind.
func TestCommitPartialStockFailureKeepsSale(t *testing.T) {
	db := memdb(t)
	svc := services.NewSaleService(repos.NewSaleRepo(db), repos.NewProductRepo(db), config.RollbackKeep)

	c := cart.New()
	addProduct(t, db, c, "p-chips", 1) // known stock 1

	// someone else sells the last bag first
	_, err := db.Exec(`UPDATE products SET stock=0 WHERE id='p-chips'`)
	require.NoError(t, err)

	_, err = svc.Commit(seller(), c)
	var perr *services.PartialStockUpdateError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, perr.Updated)
	assert.Equal(t, []string{"p-chips"}, perr.Failed)
	assert.False(t, perr.RolledBack)

	// sale record remains (fail-open), cart is NOT cleared
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sales WHERE id=?`, perr.SaleID))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, c.Len())

	// stock was never pushed negative
	var stock int
	require.NoError(t, db.Get(&stock, `SELECT stock FROM products WHERE id='p-chips'`))
	assert.Equal(t, 0, stock)
}

func TestCommitPartialStockFailureRollsBackWhenConfigured(t *testing.T) {
	db := memdb(t)
	svc := services.NewSaleService(repos.NewSaleRepo(db), repos.NewProductRepo(db), config.RollbackDelete)

	c := cart.New()
	addProduct(t, db, c, "p-cola", 2)
	addProduct(t, db, c, "p-chips", 1)

	_, err := db.Exec(`UPDATE products SET stock=0 WHERE id='p-chips'`)
	require.NoError(t, err)

	_, err = svc.Commit(seller(), c)
	var perr *services.PartialStockUpdateError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []string{"p-cola"}, perr.Updated)
	assert.Equal(t, []string{"p-chips"}, perr.Failed)
	assert.True(t, perr.RolledBack)

	// fail-closed: the sale record is gone again
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sales WHERE id=?`, perr.SaleID))
	assert.Equal(t, 0, n)

	// cola's decrement is not compensated; the operator reconciles stock
	var stock int
	require.NoError(t, db.Get(&stock, `SELECT stock FROM products WHERE id='p-cola'`))
	assert.Equal(t, 3, stock)
	assert.Equal(t, 2, c.Len())
}

// Overlapping requests on one session must not lose cart lines: a line
// added while a commit runs either lands in that sale or stays in the cart
// for the next one. The commit therefore has to run under the store lock,
// never against a bare cart pointer.
func TestCommitSerializesWithConcurrentAdds(t *testing.T) {
	db := memdb(t)
	_, err := db.Exec(`UPDATE products SET stock=1000 WHERE id='p-cola'`)
	require.NoError(t, err)

	svc := services.NewSaleService(repos.NewSaleRepo(db), repos.NewProductRepo(db), config.RollbackKeep)
	store := cart.NewStore()
	cola := cart.ProductSnapshot{ID: "p-cola", Name: "Cola", Price: 100, Stock: 1000}

	require.NoError(t, store.With("sid", func(c *cart.Cart) error { return c.Add(cola, 1) }))

	const extraAdds = 50
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < extraAdds; i++ {
			_ = store.With("sid", func(c *cart.Cart) error { return c.Add(cola, 1) })
		}
	}()

	var receipt services.Receipt
	commitErr := store.With("sid", func(c *cart.Cart) error {
		var cerr error
		receipt, cerr = svc.Commit(seller(), c)
		return cerr
	})
	<-done
	require.NoError(t, commitErr)

	var sold int
	require.NoError(t, db.Get(&sold, `SELECT COALESCE(SUM(qty),0) FROM sale_items WHERE sale_id=?`, receipt.SaleID))

	remaining := 0
	_ = store.With("sid", func(c *cart.Cart) error {
		for _, l := range c.Lines() {
			remaining += l.Qty
		}
		return nil
	})
	assert.Equal(t, 1+extraAdds, sold+remaining)
}

func TestDecrementIsGuardedAgainstOversell(t *testing.T) {
	db := memdb(t)
	prods := repos.NewProductRepo(db)

	require.NoError(t, prods.DecrementStock("biz-1", "p-cola", 5))
	err := prods.DecrementStock("biz-1", "p-cola", 1)
	require.Error(t, err)

	var stock int
	require.NoError(t, db.Get(&stock, `SELECT stock FROM products WHERE id='p-cola'`))
	assert.Equal(t, 0, stock)
}
