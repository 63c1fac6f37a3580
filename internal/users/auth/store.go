// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByUsername returns the account whose folded username matches.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	// FindByIDs returns the accounts that exist among ids, in no particular order.
	FindByIDs(context context.Context, ids []string) ([]*User, error)

	// List returns every account ordered by username.
	List(context context.Context) ([]*User, error)

	// CountByRole returns how many accounts hold role.
	CountByRole(context context.Context, role string) (int, error)

	/*
		Create persists a brand-new user account.

		Returns:
		  - error: apperr.Conflict when the folded username is taken
	*/
	Create(context context.Context, user *User) error

	/*
		Update persists username, password hash and role.

		Returns:
		  - error: apperr.Conflict on a taken username or when it would demote
		    the last administrator
	*/
	Update(context context.Context, user *User) error

	/*
		Delete removes the account and hands over the groups it solely
		administers (see [MsgLastAdministrator] for the admin guard).

		Returns:
		  - error: apperr.NotFound if absent, apperr.Conflict for the last administrator
	*/
	Delete(context context.Context, id string) error
}

// MsgLastAdministrator is returned when a change would leave no account with
// the admin role. The check runs atomically with the write.
const MsgLastAdministrator = "Cannot remove the last administrator"

// # Credential Revocation

// RevocationStore remembers credential ids revoked by logout until the
// moment the credential would have expired anyway.
type RevocationStore interface {
	Revoke(context context.Context, tokenID string, until time.Time) error
	IsRevoked(context context.Context, tokenID string) (bool, error)
}
