// Command initdb creates the database schema and seeds a development user,
// mirroring the application's bootstrap workflow.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"account-service/internal/auth"
	"account-service/internal/config"
	"account-service/internal/database"
	"account-service/internal/user"
)

const (
	seedEmail    = "test@example.com"
	seedPassword = "password123"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("initdb error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	models := []any{
		(*database.User)(nil),
		(*database.Session)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("Database initialized!")

	// Create test user if it doesn't exist
	userRepo := user.NewRepository(db)
	if _, err := userRepo.GetByEmail(ctx, seedEmail); err == nil {
		log.Println("Test user already exists")
		return nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("failed to look up test user: %w", err)
	}

	passwordHash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := userRepo.Create(ctx, seedEmail, passwordHash); err != nil {
		return fmt.Errorf("failed to create test user: %w", err)
	}

	log.Println("Test user created successfully!")
	return nil
}
