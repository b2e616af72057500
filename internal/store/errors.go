// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

var (
	// ErrDuplicate is returned when an insert or update hits a unique index.
	ErrDuplicate = errors.New("duplicate key")

	// ErrActiveConflict is returned when a write would leave a user with two
	// active themes.
	ErrActiveConflict = errors.New("another theme is already active")
)

// activeThemeConstraint is the partial unique index enforcing one active
// theme per user.
const activeThemeConstraint = "themes_one_active_per_user"

// translate maps driver errors onto the store's sentinel errors. The
// original error stays in the chain for logging.
func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == activeThemeConstraint {
			return fmt.Errorf("%s: %w: %w", op, ErrActiveConflict, err)
		}
		return fmt.Errorf("%s: %w: %s", op, ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}
