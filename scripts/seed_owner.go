package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/auth"
)

// Seeds a password user and, when OWNER_USERNAME is set, their profile.
func main() {
	fmt.Println("adding owner into database...")

	err := godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use system environment variables.")
	}

	dsn := os.Getenv("DB_DSN")
	ownerEmail := strings.ToLower(os.Getenv("OWNER_EMAIL"))
	ownerPassword := os.Getenv("OWNER_PASSWORD")
	ownerUsername := profile.NormalizeUsername(os.Getenv("OWNER_USERNAME"))

	hash, err := auth.HashPassword(ownerPassword)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	query := `
		INSERT INTO users (id, email, password_hash, provider)
		VALUES ($1, $2, $3, 'password')
		ON CONFLICT (email) DO UPDATE SET password_hash = $3
		RETURNING id
	`
	var userID uuid.UUID
	err = pool.QueryRow(context.Background(), query, uuid.New(), ownerEmail, hash).Scan(&userID)
	if err != nil {
		log.Fatalf("cannot add user: %v", err)
	}

	if ownerUsername != "" {
		p := &profile.Profile{UserID: userID, Username: ownerUsername, Name: ownerUsername}
		if err := p.Validate(); err != nil {
			log.Fatalf("invalid OWNER_USERNAME: %v", err)
		}
		_, err = pool.Exec(context.Background(), `
			INSERT INTO profiles (user_id, username, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username
		`, p.UserID, p.Username, p.Name)
		if err != nil {
			log.Fatalf("cannot add profile: %v", err)
		}
	}

	fmt.Printf("added or updated owner '%s' successfully!\n", ownerEmail)
}
