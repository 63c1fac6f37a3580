// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access is the single authorization decision point for account, group
and message operations.

# Two Kinds of Admin

A group admin is a user listed in a group's admins. A global admin is a user
whose site role is [sec.RoleAdmin]. The two are independent: group admins may
remove members of their own group, but assigning or revoking group admins and
deleting a group require the global role, even for the group's own admins.
*/
package access

import (
	"github.com/taibuivan/huddle/internal/chat/group"
	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/sec"
)

// Principal is the caller as seen by the gate. A zero Principal is anonymous.
type Principal struct {
	UserID string
	Role   sec.UserRole
}

// PrincipalFrom converts verified credentials; nil claims yield an anonymous principal.
func PrincipalFrom(claims *sec.AuthClaims) Principal {
	if claims == nil {
		return Principal{}
	}
	return Principal{UserID: claims.UserID, Role: sec.UserRole(claims.Role)}
}

// Authenticated reports whether a credential was presented.
func (principal Principal) Authenticated() bool {
	return principal.UserID != ""
}

// IsGlobalAdmin reports whether the principal holds the site admin role.
func (principal Principal) IsGlobalAdmin() bool {
	return principal.Authenticated() && principal.Role.IsAdmin()
}

// Action names an operation subject to authorization.
type Action string

const (
	ActionListGroups     Action = "group.list"
	ActionCreateGroup    Action = "group.create"
	ActionViewGroup      Action = "group.view"
	ActionAddMember      Action = "group.member.add"
	ActionRemoveMember   Action = "group.member.remove"
	ActionListCandidates Action = "group.member.candidates"
	ActionAssignAdmin    Action = "group.admin.assign"
	ActionRevokeAdmin    Action = "group.admin.revoke"
	ActionDeleteGroup    Action = "group.delete"
	ActionPostMessage    Action = "message.post"
	ActionListMessages   Action = "message.list"
	ActionLikeMessage    Action = "message.like"
	ActionJoinRoom       Action = "room.join"

	ActionListUsers  Action = "user.list"
	ActionCreateUser Action = "user.create"
	ActionEditUser   Action = "user.edit"
	ActionDeleteUser Action = "user.delete"
)

// Resource is the state an action applies to.
type Resource struct {
	// Group is the target group; nil for group-less actions.
	Group *group.Group

	// TargetUserID is the user acted upon (member removal).
	TargetUserID string
}

// Options tunes the gate.
type Options struct {
	// StrictParticipation limits group reads, posting, liking and member
	// additions to participants and global admins.
	StrictParticipation bool
}

// Gate decides whether a principal may perform an action. It holds no
// per-request state and is safe for concurrent use.
type Gate struct {
	strict bool
}

// NewGate constructs a [Gate].
func NewGate(options Options) *Gate {
	return &Gate{strict: options.StrictParticipation}
}

// # Decisions

/*
Can reports whether principal may perform action on resource.

Rules:
  - Anonymous principals may do nothing.
  - Global admin only: create, edit and delete users; assign admin,
    revoke admin, delete group.
  - Group admin or the target user: remove member.
  - Any authenticated user: everything else, narrowed to participants
    when strict participation is on.
*/
func (gate *Gate) Can(principal Principal, action Action, resource Resource) bool {
	if !principal.Authenticated() {
		return false
	}

	switch action {
	case ActionAssignAdmin, ActionRevokeAdmin, ActionDeleteGroup,
		ActionCreateUser, ActionEditUser, ActionDeleteUser:
		return principal.IsGlobalAdmin()

	case ActionRemoveMember:
		if resource.TargetUserID != "" && resource.TargetUserID == principal.UserID {
			return true
		}
		return resource.Group != nil && resource.Group.IsAdmin(principal.UserID)

	case ActionListGroups, ActionCreateGroup, ActionListUsers:
		return true

	case ActionViewGroup, ActionAddMember, ActionListCandidates,
		ActionPostMessage, ActionListMessages, ActionLikeMessage, ActionJoinRoom:
		if !gate.strict {
			return true
		}
		return principal.IsGlobalAdmin() || (resource.Group != nil && resource.Group.IsParticipant(principal.UserID))
	}

	return false
}

/*
Authorize is [Gate.Can] expressed as an error.

Returns:
  - error: nil when allowed, Unauthorized for anonymous principals, Forbidden otherwise
*/
func (gate *Gate) Authorize(principal Principal, action Action, resource Resource) error {
	if gate.Can(principal, action, resource) {
		return nil
	}
	if !principal.Authenticated() {
		return apperr.Unauthorized("Authentication required")
	}
	return apperr.Forbidden(deniedMessage(action))
}

func deniedMessage(action Action) string {
	switch action {
	case ActionAssignAdmin, ActionRevokeAdmin, ActionDeleteGroup,
		ActionCreateUser, ActionEditUser, ActionDeleteUser:
		return "Administrator role required"
	case ActionRemoveMember:
		return "Only group admins can remove other members"
	default:
		return "You are not a participant of this group"
	}
}
