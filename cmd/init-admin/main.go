package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"creditgate/internal/auth"
	"creditgate/internal/config"
	"creditgate/internal/models"
	"creditgate/internal/storage"

	"github.com/google/uuid"
)

// init-admin creates the first admin account for the admin surface.
// It reads ADMIN_BOOTSTRAP_EMAIL and ADMIN_BOOTSTRAP_PASSWORD from the
// environment and refuses to run once any admin user exists.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	email := strings.TrimSpace(os.Getenv("ADMIN_BOOTSTRAP_EMAIL"))
	password := os.Getenv("ADMIN_BOOTSTRAP_PASSWORD")

	if email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "ERROR: ADMIN_BOOTSTRAP_EMAIL and ADMIN_BOOTSTRAP_PASSWORD must be set")
		os.Exit(1)
	}
	if !isValidEmail(email) {
		fmt.Fprintf(os.Stderr, "ERROR: Invalid email format: %s\n", email)
		os.Exit(1)
	}
	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "ERROR: Password must be at least 8 characters long")
		os.Exit(1)
	}

	fmt.Println("Connecting to database...")
	db, err := storage.NewDB(storage.DBConfig{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,

		// Minimal caches; this tool touches only admin_users.
		TokenCacheSize:   10,
		TokenCacheTTL:    time.Minute,
		CatalogCacheSize: 10,
		CatalogCacheTTL:  time.Minute,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := storage.NewAdminUserRepository(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := repo.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to check existing users: %v\n", err)
		os.Exit(1)
	}
	if count > 0 {
		fmt.Printf("INFO: Found %d existing admin user(s). Bootstrap not needed.\n", count)
		fmt.Println("Create further accounts through the admin API instead.")
		os.Exit(0)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	admin := &models.AdminUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Enabled:      true,
	}

	if err := repo.Create(ctx, admin); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to create admin user: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SUCCESS: Bootstrap admin user created")
	fmt.Printf("Email: %s\n", admin.Email)
	fmt.Printf("ID:    %s\n", admin.ID)
	fmt.Println("\nLog in via POST /admin/auth/login, then remove the bootstrap")
	fmt.Println("variables from the environment.")
}

// isValidEmail performs a minimal shape check; real validation is the
// mail server's problem.
func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && strings.Count(email, "@") == 1
}
