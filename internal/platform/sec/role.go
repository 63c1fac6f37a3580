// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole is the site-wide authorization level of an account.
//
// It is unrelated to group-level administration: being listed in a group's
// admins never changes a user's UserRole.
type UserRole string

const (
	// RoleAdmin is a global administrator.
	RoleAdmin UserRole = "admin"

	// RoleUser is the default role for registered accounts.
	RoleUser UserRole = "user"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// IsAdmin reports whether r is the global administrator role.
func (r UserRole) IsAdmin() bool {
	return r.AtLeast(RoleAdmin)
}

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
