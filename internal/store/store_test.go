package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"

	"dndbuilder/internal/database"
	"dndbuilder/internal/models"
)

func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "dndbuilder")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "dndbuilder")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB connects with the production pool settings and migrates, or
// skips when Postgres is down.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, testDSN(), database.DefaultPool)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// cleanUsers removes test users by email. Themes, content and assets
// cascade. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// testUser creates a throwaway user that is removed when the test ends.
func testUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()
	cleanUsers(t, db, email)
	t.Cleanup(func() { cleanUsers(t, db, email) })

	u, err := NewUserStore(db).Create(context.Background(), &models.User{
		Email:      email,
		FirstName:  "Test",
		LicenseKey: uuid.NewString(),
	}, "testpass123")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}
