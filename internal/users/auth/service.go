// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/ctxutil"
	"github.com/taibuivan/huddle/internal/platform/sec"
	"github.com/taibuivan/huddle/internal/platform/validate"
	"github.com/taibuivan/huddle/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer signs credentials for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID, username, role string) (string, time.Time, error)
}

// Service implements the account entry points: register, login, logout and profile.
type Service struct {
	users       UserRepository
	revocations RevocationStore
	tokens      TokenIssuer
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(users UserRepository, revocations RevocationStore, tokens TokenIssuer) *Service {
	return &Service{users: users, revocations: revocations, tokens: tokens}
}

// # Credential Rules

/*
ValidateCredentials applies the username and password rules shared by
self-registration and administrator user management.

Returns:
  - string: the normalized username to store
  - error: apperr.ValidationError listing every failed field
*/
func ValidateCredentials(username, password string, passwordRequired bool) (string, error) {
	display, _ := NormalizeUsername(username)

	validator := &validate.Validator{}
	validator.Required(FieldUsername, display).
		Custom(FieldUsername, display != "" && UsernameLength(display) < MinUsernameLength,
			fmt.Sprintf("Minimum %d characters", MinUsernameLength)).
		Custom(FieldUsername, UsernameLength(display) > MaxUsernameLength,
			fmt.Sprintf("Maximum %d characters", MaxUsernameLength))

	if passwordRequired || password != "" {
		validator.Required(FieldPassword, password).
			MinLen(FieldPassword, password, sec.MinPasswordLength)
	}

	return display, validator.Err()
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username string
	Password string
	Role     string
}

/*
Register validates, hashes, and persists a brand new user account.

Self-registration only ever creates the user role; asking for any other role
is a validation error. Administrators are created through account management
or the startup seed.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: ValidationError, Conflict (username taken) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	username, err := ValidateCredentials(input.Username, input.Password, true)
	if err != nil {
		return nil, err
	}

	// Public sign-up never grants elevated roles; administrators are created
	// through the account endpoints or the bootstrap seed.
	if input.Role != "" && input.Role != string(sec.RoleUser) {
		return nil, validate.RequiredError(FieldRole, "Self-registration can only create the user role")
	}

	user, err := service.create(context, username, input.Password, sec.RoleUser)
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_registered", slog.String("user_id", user.ID))
	return user, nil
}

// create hashes the password and persists a new account.
func (service *Service) create(context context.Context, username, password string, role sec.UserRole) (*User, error) {
	hashedPassword, err := sec.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_hash_failed: %w", err))
	}

	user := &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	if err := service.users.Create(context, user); err != nil {
		return nil, err
	}
	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult is a successful login: the account and its signed credential.
type LoginResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

/*
Login validates user credentials and issues a signed credential.

Unknown usernames and wrong passwords fail identically to prevent account
enumeration.

Returns:
  - *LoginResult: User plus credential
  - error: apperr.Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {
	user, err := service.users.FindByUsername(context, input.Username)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	token, expiresAt, err := service.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_token_generation_failed: %w", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_logged_in", slog.String("user_id", user.ID))
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

/*
Logout revokes the presented credential until its natural expiry.

A nil claims value (no credential or an already-invalid one) is a successful
no-op: logout always clears the client side.
*/
func (service *Service) Logout(context context.Context, claims *sec.AuthClaims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	if err := service.revocations.Revoke(context, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Internal(fmt.Errorf("auth_service_logout_failed: %w", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_logged_out", slog.String("user_id", claims.UserID))
	return nil
}

// Profile returns the caller's own account.
func (service *Service) Profile(context context.Context, userID string) (*User, error) {
	return service.users.FindByID(context, userID)
}

// # Bootstrap

/*
EnsureAdmin creates an administrator with the given credentials when no
administrator exists yet. Running it again is a no-op.

Returns:
  - bool: whether an account was created
  - error: validation or storage failures
*/
func (service *Service) EnsureAdmin(context context.Context, username, password string) (bool, error) {
	count, err := service.users.CountByRole(context, string(sec.RoleAdmin))
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	normalized, err := ValidateCredentials(username, password, true)
	if err != nil {
		return false, err
	}

	user, err := service.create(context, normalized, password, sec.RoleAdmin)
	if err != nil {
		return false, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "admin_seeded",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return true, nil
}
