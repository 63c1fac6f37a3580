// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account implements administrator user management: listing, adding,
editing and deleting accounts.

Listing is open to any signed-in user (the group member picker uses it);
every mutation is authorized by the [access.Gate] and requires the global
admin role. The repository refuses to remove or demote the last remaining
administrator.
*/
package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/huddle/internal/chat/access"
	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/ctxutil"
	"github.com/taibuivan/huddle/internal/platform/sec"
	"github.com/taibuivan/huddle/internal/platform/validate"
	"github.com/taibuivan/huddle/internal/users/auth"
	"github.com/taibuivan/huddle/pkg/uuid"
)

// Service implements account management use cases over [auth.UserRepository].
type Service struct {
	users auth.UserRepository
	gate  *access.Gate
}

// NewService constructs a new account [Service].
func NewService(users auth.UserRepository, gate *access.Gate) *Service {
	return &Service{users: users, gate: gate}
}

// authorize checks the caller found in context against action.
func (service *Service) authorize(context context.Context, action access.Action, targetID string) error {
	principal := access.PrincipalFrom(ctxutil.GetAuthUser(context))
	return service.gate.Authorize(principal, action, access.Resource{TargetUserID: targetID})
}

// List returns every account.
func (service *Service) List(context context.Context) ([]*auth.User, error) {
	if err := service.authorize(context, access.ActionListUsers, ""); err != nil {
		return nil, err
	}
	return service.users.List(context)
}

// AddInput describes a new account created by an administrator.
type AddInput struct {
	Username string
	Password string
	Role     string
}

/*
Add creates an account with any valid role.

Returns:
  - *auth.User: Created entity
  - error: Unauthorized, Forbidden, ValidationError, Conflict (username taken) or storage errors
*/
func (service *Service) Add(context context.Context, input AddInput) (*auth.User, error) {
	if err := service.authorize(context, access.ActionCreateUser, ""); err != nil {
		return nil, err
	}

	username, err := auth.ValidateCredentials(input.Username, input.Password, true)
	if err != nil {
		return nil, err
	}
	if err := validateRole(input.Role, true); err != nil {
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("account_service_hash_failed: %w", err))
	}

	user := &auth.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hashedPassword,
		Role:         sec.UserRole(input.Role),
	}
	if err := service.users.Create(context, user); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_added",
		slog.String("account_id", user.ID),
		slog.String("role", input.Role),
	)
	return user, nil
}

// EditInput carries optional replacements; empty fields are left unchanged.
type EditInput struct {
	Username string
	Password string
	Role     string
}

/*
Edit updates username, password and role of an existing account.

Returns:
  - *auth.User: Updated entity
  - error: Unauthorized, Forbidden, NotFound, ValidationError, Conflict
    (username taken or last admin demoted)
*/
func (service *Service) Edit(context context.Context, id string, input EditInput) (*auth.User, error) {
	if err := service.authorize(context, access.ActionEditUser, id); err != nil {
		return nil, err
	}

	user, err := service.users.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	username := user.Username
	if input.Username != "" {
		username = input.Username
	}

	normalized, err := auth.ValidateCredentials(username, input.Password, false)
	if err != nil {
		return nil, err
	}
	if err := validateRole(input.Role, false); err != nil {
		return nil, err
	}

	user.Username = normalized

	if input.Password != "" {
		hashedPassword, err := sec.HashPassword(input.Password)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("account_service_hash_failed: %w", err))
		}
		user.PasswordHash = hashedPassword
	}

	if input.Role != "" {
		user.Role = sec.UserRole(input.Role)
	}

	if err := service.users.Update(context, user); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_edited", slog.String("account_id", user.ID))
	return user, nil
}

// Delete removes an account. Its group memberships, likes and sent messages
// go with it; groups it alone administers pass to their earliest member.
func (service *Service) Delete(context context.Context, id string) error {
	if err := service.authorize(context, access.ActionDeleteUser, id); err != nil {
		return err
	}

	if err := service.users.Delete(context, id); err != nil {
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "account_deleted", slog.String("account_id", id))
	return nil
}

func validateRole(role string, required bool) error {
	if role == "" && !required {
		return nil
	}

	validator := &validate.Validator{}
	validator.OneOf(auth.FieldRole, role, string(sec.RoleUser), string(sec.RoleAdmin))
	return validator.Err()
}
