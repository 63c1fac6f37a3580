// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package message

import "context"

// Repository defines the data access contract for messages and likes.
type Repository interface {

	// Create persists a new message.
	Create(context context.Context, message *Message) error

	// FindByID returns a message with its like set, or apperr.NotFound.
	FindByID(context context.Context, id string) (*Message, error)

	// ListByGroup returns every message of a group ordered by creation time.
	ListByGroup(context context.Context, groupID string, order Order) ([]*Message, error)

	/*
		ToggleLike flips userID's like on a message in one atomic step.

		Returns:
		  - *Message: state after the flip
		  - bool: true when the like was added, false when removed
		  - error: apperr.NotFound when the message is missing
	*/
	ToggleLike(context context.Context, id, userID string) (*Message, bool, error)

	/*
		Unlike removes userID's like.

		Returns:
		  - error: apperr.NotFound (message), apperr.Conflict when not liked
	*/
	Unlike(context context.Context, id, userID string) (*Message, error)
}
