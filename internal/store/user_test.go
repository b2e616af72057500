// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"dndbuilder/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db, "test-create@store-test.local")

	if user.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if user.Role != models.RoleCustomer {
		t.Errorf("role: got %q, want %q", user.Role, models.RoleCustomer)
	}
	if user.PasswordHash == "" || user.PasswordHash == "testpass123" {
		t.Error("password must be stored hashed")
	}
}

func TestUserStoreCreateDuplicateEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	testUser(t, db, "test-dup@store-test.local")

	_, err := s.Create(context.Background(), &models.User{
		Email:      "TEST-DUP@store-test.local",
		LicenseKey: uuid.NewString(),
	}, "x")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserStoreFindByEmail(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()

	email := "test-findbyemail@store-test.local"
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		t.Fatalf("FindByEmail (not found): %v", err)
	}
	if user != nil {
		t.Fatal("expected nil user before creation")
	}

	created := testUser(t, db, email)

	found, err := s.FindByEmail(ctx, strings.ToUpper(email))
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("expected user %s, got %+v", created.ID, found)
	}
}

func TestUserStoreFindByIDAndLicense(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()
	created := testUser(t, db, "test-findbyid@store-test.local")

	byID, err := s.FindByID(ctx, created.ID)
	if err != nil || byID == nil {
		t.Fatalf("FindByID: %v, %v", byID, err)
	}

	byKey, err := s.FindByLicenseKey(ctx, created.LicenseKey)
	if err != nil || byKey == nil || byKey.ID != created.ID {
		t.Fatalf("FindByLicenseKey: %v, %v", byKey, err)
	}

	missing, err := s.FindByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("FindByID (missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestUserStoreUpdateProfile(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()
	created := testUser(t, db, "test-profile@store-test.local")

	first := "Ada"
	image := "https://cdn.example.com/ada.png"
	updated, err := s.UpdateProfile(ctx, created.ID, models.ProfileUpdate{FirstName: &first, Image: &image})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FirstName != "Ada" {
		t.Errorf("first name: got %q", updated.FirstName)
	}
	if updated.Image == nil || *updated.Image != image {
		t.Errorf("image: got %v", updated.Image)
	}
	if updated.Email != created.Email {
		t.Errorf("email should be unchanged, got %q", updated.Email)
	}

	none, err := s.UpdateProfile(ctx, uuid.New(), models.ProfileUpdate{FirstName: &first})
	if err != nil || none != nil {
		t.Errorf("UpdateProfile (missing): %v, %v", none, err)
	}
}

func TestUserStorePasswordAndLicense(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)
	ctx := context.Background()
	created := testUser(t, db, "test-password@store-test.local")

	if !s.CheckPassword(created, "testpass123") {
		t.Error("expected original password to match")
	}
	if err := s.SetPassword(ctx, created.ID, "n3w-pass"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	reloaded, _ := s.FindByID(ctx, created.ID)
	if s.CheckPassword(reloaded, "testpass123") {
		t.Error("old password should no longer match")
	}
	if !s.CheckPassword(reloaded, "n3w-pass") {
		t.Error("new password should match")
	}

	if err := s.SetLicenseKey(ctx, created.ID, "NEW-KEY-"+uuid.NewString()); err != nil {
		t.Fatalf("SetLicenseKey: %v", err)
	}
	if err := s.SetLicenseKey(ctx, uuid.New(), "x"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("SetLicenseKey (missing): expected sql.ErrNoRows, got %v", err)
	}
}
