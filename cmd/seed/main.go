package main // seed bootstraps the first superadmin account

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jesaworld/sms-backend/internal/config"
	"github.com/jesaworld/sms-backend/internal/database"
	"github.com/jesaworld/sms-backend/internal/repository"
	"github.com/jesaworld/sms-backend/internal/utils"
)

// The seed command creates a pre-verified superadmin from SEED_EMAIL and
// SEED_PASSWORD so a fresh deployment has an operator account without going
// through the email verification flow. Running it twice is a no-op.
func main() {
	_ = godotenv.Load()

	email := os.Getenv("SEED_EMAIL")
	password := os.Getenv("SEED_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("SEED_EMAIL and SEED_PASSWORD must be set")
	}

	cfg := config.Load()
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	hash, err := utils.HashPassword(password, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := repository.NewUserRepo(db)
	u := repository.User{
		Email:           email,
		PasswordHash:    hash,
		FirstName:       "Super",
		LastName:        "Admin",
		Role:            repository.RoleSuperAdmin,
		IsEmailVerified: true,
	}
	if err := users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			log.Printf("superadmin %s already exists, nothing to do", email)
			return
		}
		log.Fatalf("create superadmin: %v", err)
	}
	log.Printf("superadmin %s created (id=%d)", email, u.ID)
}
