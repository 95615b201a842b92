package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/user-management-service/internal/domain/entity"
	"github.com/oksasatya/user-management-service/pkg/helpers"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	dsn := getenv("DATABASE_URL", "")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			getenv("DB_USER", "postgres"), getenv("DB_PASSWORD", "postgres"),
			getenv("DB_HOST", "localhost"), getenv("DB_PORT", "5432"),
			getenv("DB_NAME", "usersdb"), getenv("DB_SSLMODE", "disable"))
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := getenv("SEED_ADMIN_EMAIL", "admin@example.com")
	nickname := getenv("SEED_ADMIN_NICKNAME", "admin")
	password := getenv("SEED_ADMIN_PASSWORD", "changeme123")

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (id, nickname, email, hashed_password, role, email_verified)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role, updated_at = now()
		RETURNING id
	`, uuid.NewString(), nickname, email, hash, string(entity.RoleAdmin)).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}
	fmt.Printf("seeded admin account: id=%s email=%s nickname=%s\n", id, email, nickname)
}
