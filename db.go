package main

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lapak/models"
)

var db *gorm.DB

func initDB(cfg Config) {
	if cfg.DBDSN == "" {
		log.Fatal("db-dsn is not set. This project requires a Postgres DSN (flag --db-dsn or env LAPAK_DB_DSN).")
	}
	var err error
	db, err = gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	if cfg.AutoMigrate {
		migrateDB(db)
	}
}

// migrateDB migrates models individually so a failure on one doesn't block
// the others. Any permission errors are logged and ignored.
func migrateDB(g *gorm.DB) {
	if err := g.AutoMigrate(&models.User{}); err != nil {
		log.Printf("migration warning (users): %v", err)
	}
	if err := g.AutoMigrate(&models.SellerProfile{}); err != nil {
		log.Printf("migration warning (seller_profiles): %v", err)
	}
	if err := g.AutoMigrate(&models.Listing{}); err != nil {
		log.Printf("migration warning (listings): %v", err)
	}
	if err := g.AutoMigrate(&models.PurchaseRecord{}); err != nil {
		log.Printf("migration warning (purchase_records): %v", err)
	}
	if err := g.AutoMigrate(&models.RefreshToken{}); err != nil {
		log.Printf("migration warning (refresh_tokens): %v", err)
	}
}
