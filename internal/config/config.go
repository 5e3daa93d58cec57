package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// RollbackPolicy controls what happens to a sale record when one of its
// stock decrements fails after the ledger insert already succeeded.
type RollbackPolicy string

const (
	// RollbackKeep leaves the sale record in place; the operator reconciles
	// stock manually.
	RollbackKeep RollbackPolicy = "keep"
	// RollbackDelete removes the sale record so the ledger never runs ahead
	// of actual stock.
	RollbackDelete RollbackPolicy = "delete"
)

type Config struct {
	Port         string
	DBDSN        string
	LogFile      string
	SaleRollback RollbackPolicy
	SeedDemo     bool
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "tillpoint.db" // sqlite file in project root
	}
	logFile := os.Getenv("LOG_FILE")

	rollback := RollbackKeep
	if os.Getenv("SALE_ROLLBACK") == string(RollbackDelete) {
		rollback = RollbackDelete
	}

	seedDemo := os.Getenv("SEED_DEMO") != "0"

	cfg := Config{Port: port, DBDSN: dsn, LogFile: logFile, SaleRollback: rollback, SeedDemo: seedDemo}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s SALE_ROLLBACK=%s", cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.SaleRollback)
	return cfg
}
