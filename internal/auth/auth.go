// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth implements account registration, bearer token issuance and
// the profile operations of the signed-in user.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/license"
	"dndbuilder/internal/logger"
	"dndbuilder/internal/models"
	"dndbuilder/internal/session"
	"dndbuilder/internal/store"
)

// Validation limits.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores anything longer
	MaxNameLength     = 100
)

// DefaultTokenTTL is the bearer token lifetime when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// Users is the persistence the service needs. *store.UserStore satisfies it.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, u *models.User, password string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.User, error)
	SetLicenseKey(ctx context.Context, id uuid.UUID, key string) error
	SetPassword(ctx context.Context, id uuid.UUID, password string) error
	CheckPassword(u *models.User, password string) bool
}

// Tokens keeps revocations and reset tokens. *session.Store satisfies it.
type Tokens interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	CreateReset(ctx context.Context, userID uuid.UUID) (string, error)
	ConsumeReset(ctx context.Context, token string) (uuid.UUID, error)
}

// Mailer sends account emails. *mail.Service satisfies it.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, name, token string) error
	SendWelcome(ctx context.Context, email, name, licenseKey string) error
}

// Claims are the JWT claims of a bearer token. Subject holds the user id
// and ID the token id used for revocation.
type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() uuid.UUID {
	id, _ := uuid.Parse(c.Subject)
	return id
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Session is returned after a successful login or registration.
type Session struct {
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        *models.User `json:"user"`
}

// Service implements the auth operations.
type Service struct {
	users  Users
	tokens Tokens
	mailer Mailer
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates an auth service. A zero ttl uses DefaultTokenTTL.
func NewService(users Users, tokens Tokens, mailer Mailer, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Register creates a customer account with a fresh license key and signs
// the new user in. A failed welcome email does not fail registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if err := validateNames(first, last); err != nil {
		return nil, err
	}

	key, err := license.Generate()
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, &models.User{
		Email:      email,
		FirstName:  first,
		LastName:   last,
		Role:       models.RoleCustomer,
		LicenseKey: key,
	}, in.Password)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Email is already registered").Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if err := s.mailer.SendWelcome(ctx, u.Email, u.DisplayName(), u.LicenseKey); err != nil {
		logger.FromContext(ctx).Warn("welcome email failed", zap.Error(err))
	}
	return s.issue(u)
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if u == nil || !s.users.CheckPassword(u, password) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	return s.issue(u)
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, c *Claims) error {
	if c == nil || c.ID == "" {
		return apperr.Unauthorized("Not signed in")
	}
	exp := s.now().Add(s.ttl)
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}
	return s.tokens.Revoke(ctx, c.ID, exp)
}

// ParseToken validates a raw bearer token and rejects revoked ones.
func (s *Service) ParseToken(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token").Wrap(err)
	}
	if claims.UserID() == uuid.Nil || claims.ID == "" {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, apperr.Unauthorized("Token has been revoked")
	}
	return claims, nil
}

// Profile returns the user behind a token.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

// UpdateProfile applies a partial profile edit.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &email
	}
	first, last := "", ""
	if upd.FirstName != nil {
		first = strings.TrimSpace(*upd.FirstName)
		upd.FirstName = &first
	}
	if upd.LastName != nil {
		last = strings.TrimSpace(*upd.LastName)
		upd.LastName = &last
	}
	if err := validateNames(first, last); err != nil {
		return nil, err
	}

	u, err := s.users.UpdateProfile(ctx, userID, upd)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Email is already in use").Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

// RegenerateLicenseKey replaces the user's license key and returns the
// updated user.
func (s *Service) RegenerateLicenseKey(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	key, err := license.Generate()
	if err != nil {
		return nil, err
	}
	err = s.users.SetLicenseKey(ctx, userID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("regenerate license key: %w", err)
	}
	return s.Profile(ctx, userID)
}

// ForgotPassword mails a reset link when the address belongs to a user.
// Unknown addresses succeed silently.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	if u == nil {
		return nil
	}
	token, err := s.tokens.CreateReset(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	if err := s.mailer.SendPasswordReset(ctx, u.Email, u.FirstName, token); err != nil {
		logger.FromContext(ctx).Error("password reset email failed", zap.Error(err))
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	userID, err := s.tokens.ConsumeReset(ctx, token)
	if errors.Is(err, session.ErrInvalidToken) {
		return apperr.BadRequest("Invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	err = s.users.SetPassword(ctx, userID, password)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.BadRequest("Invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

func (s *Service) issue(u *models.User) (*Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{AccessToken: signed, ExpiresAt: exp, User: u}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.BadRequest("Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.BadRequest("Please provide a valid email address")
	}
	return email, nil
}

func validatePassword(p string) error {
	if utf8.RuneCountInString(p) < MinPasswordLength {
		return apperr.BadRequest("Password must be at least %d characters", MinPasswordLength)
	}
	if len(p) > MaxPasswordLength {
		return apperr.BadRequest("Password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

func validateNames(first, last string) error {
	if utf8.RuneCountInString(first) > MaxNameLength || utf8.RuneCountInString(last) > MaxNameLength {
		return apperr.BadRequest("Names must be at most %d characters", MaxNameLength)
	}
	return nil
}
