// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides the time-ordered identifiers used for every user, group
and message id.

Version 7 values sort by creation time, so primary key indexes stay append-only
and ids can break ties between messages created in the same instant.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// Valid reports whether s is a canonical UUID string of any version.
func Valid(s string) bool {
	return uuid.Validate(s) == nil && len(s) == 36
}
