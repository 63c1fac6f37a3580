// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package group

import "context"

// Repository defines the data access contract for groups and membership.
//
// Membership mutations are single atomic operations on the store so that
// concurrent changes to the same group never lose one another.
type Repository interface {

	// Create persists a new group together with its admin and member lists.
	Create(context context.Context, group *Group) error

	/*
		FindByID returns the group with its current membership.

		Returns:
		  - *Group: Hydrated entity
		  - error: apperr.NotFound if absent
	*/
	FindByID(context context.Context, id string) (*Group, error)

	// ListForUser returns groups where userID is an admin or a member, oldest first.
	ListForUser(context context.Context, userID string) ([]*Group, error)

	/*
		AddMember appends userID to the member list.

		Returns:
		  - *Group: state after the change
		  - error: apperr.NotFound (group), apperr.Conflict (already a member)
	*/
	AddMember(context context.Context, groupID, userID string) (*Group, error)

	// RemoveMember drops userID from the member list; absent users are a no-op.
	RemoveMember(context context.Context, groupID, userID string) (*Group, error)

	/*
		AddAdmin appends userID to the admin list.

		Returns:
		  - error: apperr.NotFound (group), apperr.Conflict (already an admin)
	*/
	AddAdmin(context context.Context, groupID, userID string) (*Group, error)

	/*
		RemoveAdmin drops userID from the admin list; absent users are a no-op.

		Returns:
		  - error: apperr.NotFound (group), apperr.Conflict when userID is the last admin
	*/
	RemoveAdmin(context context.Context, groupID, userID string) (*Group, error)

	// Delete removes the group and, with it, all of its messages.
	Delete(context context.Context, id string) error
}
