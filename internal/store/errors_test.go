package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateUniqueViolation(t *testing.T) {
	err := translate("create theme", &pgconn.PgError{Code: "23505", ConstraintName: "themes_name_user_id_key"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if errors.Is(err, ErrActiveConflict) {
		t.Error("name violation must not be reported as an active conflict")
	}
}

func TestTranslateActiveViolation(t *testing.T) {
	err := translate("activate theme", &pgconn.PgError{Code: "23505", ConstraintName: activeThemeConstraint})
	if !errors.Is(err, ErrActiveConflict) {
		t.Errorf("expected ErrActiveConflict, got %v", err)
	}
}

func TestTranslateOtherErrors(t *testing.T) {
	cause := errors.New("connection reset")
	err := translate("list themes", cause)
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrActiveConflict) {
		t.Errorf("unexpected sentinel in %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should stay in the chain")
	}

	fk := translate("create theme", &pgconn.PgError{Code: "23503"})
	if errors.Is(fk, ErrDuplicate) {
		t.Error("foreign key violations are not duplicates")
	}
}
