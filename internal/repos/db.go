package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string, seedDemo bool) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if seedDemo {
		// Idempotent; safe to run every start.
		if err := seedIfEmpty(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Businesses (tenants)
CREATE TABLE IF NOT EXISTS businesses(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  code TEXT NOT NULL UNIQUE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_businesses_code ON businesses(code);

-- Users
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
  username TEXT NOT NULL,
  pin_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('ADMIN','SELLER')),
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_business_username
  ON users(business_id, LOWER(username));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL CHECK (price >= 0),
  stock INTEGER NOT NULL DEFAULT 0,
  barcode TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_business ON products(business_id);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(LOWER(name));
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_barcode
  ON products(business_id, barcode) WHERE barcode IS NOT NULL AND barcode != '';

-- Sales (append-only ledger)
CREATE TABLE IF NOT EXISTS sales(
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL REFERENCES businesses(id),
  user_id TEXT NOT NULL REFERENCES users(id),
  total NUMERIC NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sales_business_created ON sales(business_id, created_at);

CREATE TABLE IF NOT EXISTS sale_items(
  sale_id TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  unit_price NUMERIC NOT NULL,
  subtotal NUMERIC NOT NULL,
  PRIMARY KEY (sale_id, product_id)
);
`
	_, err := db.Exec(schema)
	return err
}

// seedIfEmpty inserts a demo business with products and two users so a fresh
// checkout is usable immediately.
func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM businesses`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo business/products/users")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("1234"), 12)
	sellerHash, _ := bcrypt.GenerateFromPassword([]byte("5678"), 12)

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO businesses(id,name,code) VALUES
	  ('biz-demo','Demo Kiosk','DEMO123')`)

	tx.MustExec(`INSERT INTO users(id,business_id,username,pin_hash,role,active) VALUES
	  ('u-admin','biz-demo','admin',?, 'ADMIN',1),
	  ('u-vendor','biz-demo','vendor',?, 'SELLER',1)`, string(adminHash), string(sellerHash))

	tx.MustExec(`INSERT INTO products(id,business_id,name,price,stock,barcode) VALUES
	  ('p-cola','biz-demo','Cola 500ml',100,24,'7790001000019'),
	  ('p-chips','biz-demo','Potato Chips',50,12,'7790001000026'),
	  ('p-water','biz-demo','Mineral Water',30,30,'7790001000033'),
	  ('p-choc','biz-demo','Chocolate Bar',80,8,NULL)`)

	return tx.Commit()
}
