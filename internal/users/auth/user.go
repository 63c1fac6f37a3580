// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the identity and role model: user accounts,
registration, login, logout and the profile lookup.

# Architecture

Entities defined here have no transport dependencies. Other domains refer to
users only by id and resolve them through [UserRepository].
*/
package auth

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/huddle/internal/platform/sec"
)

// # Domain Entities

// User represents a registered account.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Summary is the public projection of a user embedded in other resources.
type Summary struct {
	ID       string       `json:"id"`
	Username string       `json:"username"`
	Role     sec.UserRole `json:"role"`
}

// Summary projects the user to its public fields.
func (user *User) Summary() Summary {
	return Summary{ID: user.ID, Username: user.Username, Role: user.Role}
}

// # Field Identifiers

const (
	FieldUsername = "username"
	FieldPassword = "password"
	FieldRole     = "role"
	FieldUser     = "user"
	FieldToken    = "token"
)

// # Username Rules

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
)

var folder = cases.Fold()

/*
NormalizeUsername trims and NFC-normalizes a username for storage and
derives the case-folded key used for uniqueness and lookups.

Returns:
  - display: the username as it will be stored and shown
  - key: the comparison key ("Ålice" and "ålice" share one key)
*/
func NormalizeUsername(raw string) (display string, key string) {
	display = norm.NFC.String(strings.TrimSpace(raw))
	key = norm.NFC.String(folder.String(display))
	return display, key
}

// UsernameLength counts characters, not bytes.
func UsernameLength(username string) int {
	return utf8.RuneCountInString(username)
}
