// Package store provides database access methods for all builder
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dndbuilder/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// userColumns lists the columns selected in user queries.
const userColumns = `id, email, password_hash, first_name, last_name, image, role, license_key, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := scanner.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Image, &u.Role, &u.LicenseKey, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail retrieves a user by their email address (case-insensitive).
// Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByLicenseKey retrieves the owner of a license key. Returns nil if not found.
func (s *UserStore) FindByLicenseKey(ctx context.Context, key string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE license_key = $1`, key)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by license key: %w", err)
	}
	return u, nil
}

// List returns all users ordered by creation date.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts a new user with a bcrypt-hashed password. A taken email
// yields ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, u *models.User, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := u.Role
	if role == "" {
		role = models.RoleCustomer
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, image, role, license_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		u.Email, string(hash), u.FirstName, u.LastName, u.Image, role, u.LicenseKey,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, translate("create user", err)
	}
	return created, nil
}

// UpdateProfile applies the non-nil fields of upd and returns the updated
// user, or nil if the user does not exist. A taken email yields ErrDuplicate.
func (s *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET
			email      = COALESCE($1, email),
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			image      = COALESCE($4, image),
			updated_at = NOW()
		WHERE id = $5
		RETURNING `+userColumns,
		upd.Email, upd.FirstName, upd.LastName, upd.Image, id,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, translate("update profile", err)
	}
	return u, nil
}

// SetLicenseKey replaces the user's license key.
func (s *UserStore) SetLicenseKey(ctx context.Context, id uuid.UUID, key string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET license_key = $1, updated_at = NOW() WHERE id = $2
	`, key, id)
	if err != nil {
		return translate("set license key", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetPassword replaces the user's password hash.
func (s *UserStore) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, string(hash), id)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a user by ID. Themes, content and assets cascade.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
