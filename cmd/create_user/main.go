package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lapak/models"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_user <username> <password> [location]")
		os.Exit(2)
	}
	username := os.Args[1]
	password := os.Args[2]
	location := "unknown"
	if len(os.Args) > 3 {
		location = os.Args[3]
	}

	dsn := os.Getenv("LAPAK_DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("LAPAK_DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	// check existing
	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{Username: username, HashedPassword: hpw}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	// create the seller profile so the user can list items right away
	prof := models.SellerProfile{UserID: user.ID, Location: location}
	if err := db.Create(&prof).Error; err != nil {
		log.Printf("warning: failed to create seller profile: %v", err)
	}
	fmt.Printf("created user %s id=%d\n", username, user.ID)
}
