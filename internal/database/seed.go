package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"dndbuilder/internal/license"
	"dndbuilder/internal/logger"
)

// SeedEmail is the login of the demo account created by Seed.
const SeedEmail = "admin@dndbuilder.local"

// defaultThemeSettings is the starter theme given to the seeded account.
const defaultThemeSettings = `{
  "color": {"primary": "#2563eb", "secondary": "#64748b", "text": "#0f172a", "background": "#ffffff"},
  "typography": {"body": {"fontFamily": "Inter", "fontSize": {"desktop": 16, "mobile": 14}}},
  "layout": {"containerWidth": {"desktop": 1140}}
}`

// Seed populates the database with initial development data.
// It creates a demo admin account with an active default theme unless the
// account already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = $1", SeedEmail).Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		logger.L().Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	key, err := license.Generate()
	if err != nil {
		return fmt.Errorf("seed license key: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRow(`
		INSERT INTO users (email, password_hash, first_name, last_name, role, license_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, SeedEmail, string(hash), "Demo", "Admin", "admin", key).Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO themes (user_id, name, settings, is_active)
		VALUES ($1, $2, $3::jsonb, TRUE)
	`, userID, "Default", defaultThemeSettings)
	if err != nil {
		return fmt.Errorf("seed insert theme: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	logger.L().Info("database seeded with demo account",
		zap.String("email", SeedEmail),
		zap.String("password", "admin"),
	)

	return nil
}
