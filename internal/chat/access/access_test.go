// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/huddle/internal/chat/access"
	"github.com/taibuivan/huddle/internal/chat/group"
	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/sec"
)

var (
	siteAdmin  = access.Principal{UserID: "root", Role: sec.RoleAdmin}
	groupAdmin = access.Principal{UserID: "alice", Role: sec.RoleUser}
	member     = access.Principal{UserID: "bob", Role: sec.RoleUser}
	outsider   = access.Principal{UserID: "carol", Role: sec.RoleUser}
	anonymous  = access.Principal{}
)

func testGroup() *group.Group {
	return &group.Group{ID: "g1", Admins: []string{"alice"}, Members: []string{"bob"}}
}

/*
TestGate_Default checks the rule table with strict participation off.
*/
func TestGate_Default(t *testing.T) {
	gate := access.NewGate(access.Options{})
	g := testGroup()

	cases := []struct {
		name      string
		principal access.Principal
		action    access.Action
		resource  access.Resource
		allowed   bool
	}{
		{"anonymous cannot list", anonymous, access.ActionListGroups, access.Resource{}, false},
		{"user creates group", outsider, access.ActionCreateGroup, access.Resource{}, true},
		{"outsider posts (open participation)", outsider, access.ActionPostMessage, access.Resource{Group: g}, true},
		{"outsider adds member", outsider, access.ActionAddMember, access.Resource{Group: g}, true},

		{"group admin cannot delete group", groupAdmin, access.ActionDeleteGroup, access.Resource{Group: g}, false},
		{"site admin deletes group", siteAdmin, access.ActionDeleteGroup, access.Resource{Group: g}, true},
		{"group admin cannot assign admin", groupAdmin, access.ActionAssignAdmin, access.Resource{Group: g}, false},
		{"site admin revokes admin", siteAdmin, access.ActionRevokeAdmin, access.Resource{Group: g}, true},

		{"group admin removes member", groupAdmin, access.ActionRemoveMember, access.Resource{Group: g, TargetUserID: "bob"}, true},
		{"member removes self", member, access.ActionRemoveMember, access.Resource{Group: g, TargetUserID: "bob"}, true},
		{"non-member removes self", outsider, access.ActionRemoveMember, access.Resource{Group: g, TargetUserID: "carol"}, true},
		{"member removes other", member, access.ActionRemoveMember, access.Resource{Group: g, TargetUserID: "alice"}, false},
		{"outsider removes member", outsider, access.ActionRemoveMember, access.Resource{Group: g, TargetUserID: "bob"}, false},
		{"site admin without group role removes member", siteAdmin, access.ActionRemoveMember, access.Resource{Group: g, TargetUserID: "bob"}, false},

		{"user lists accounts", outsider, access.ActionListUsers, access.Resource{}, true},
		{"anonymous cannot list accounts", anonymous, access.ActionListUsers, access.Resource{}, false},
		{"site admin creates user", siteAdmin, access.ActionCreateUser, access.Resource{}, true},
		{"user cannot create user", outsider, access.ActionCreateUser, access.Resource{}, false},
		{"group admin cannot edit user", groupAdmin, access.ActionEditUser, access.Resource{TargetUserID: "bob"}, false},
		{"site admin edits user", siteAdmin, access.ActionEditUser, access.Resource{TargetUserID: "bob"}, true},
		{"user cannot delete self", member, access.ActionDeleteUser, access.Resource{TargetUserID: "bob"}, false},
		{"site admin deletes user", siteAdmin, access.ActionDeleteUser, access.Resource{TargetUserID: "bob"}, true},

		{"unknown action", siteAdmin, access.Action("group.rename"), access.Resource{Group: g}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, gate.Can(tc.principal, tc.action, tc.resource))
		})
	}
}

func TestGate_StrictParticipation(t *testing.T) {
	gate := access.NewGate(access.Options{StrictParticipation: true})
	g := testGroup()

	for _, action := range []access.Action{
		access.ActionViewGroup, access.ActionPostMessage, access.ActionListMessages,
		access.ActionLikeMessage, access.ActionAddMember, access.ActionJoinRoom,
	} {
		assert.True(t, gate.Can(member, action, access.Resource{Group: g}), action)
		assert.True(t, gate.Can(groupAdmin, action, access.Resource{Group: g}), action)
		assert.True(t, gate.Can(siteAdmin, action, access.Resource{Group: g}), action)
		assert.False(t, gate.Can(outsider, action, access.Resource{Group: g}), action)
	}

	assert.True(t, gate.Can(outsider, access.ActionCreateGroup, access.Resource{}))
}

func TestGate_Authorize(t *testing.T) {
	gate := access.NewGate(access.Options{})
	g := testGroup()

	assert.NoError(t, gate.Authorize(siteAdmin, access.ActionDeleteGroup, access.Resource{Group: g}))

	err := gate.Authorize(anonymous, access.ActionDeleteGroup, access.Resource{Group: g})
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	err = gate.Authorize(outsider, access.ActionDeleteGroup, access.Resource{Group: g})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}

func TestPrincipalFrom(t *testing.T) {
	assert.False(t, access.PrincipalFrom(nil).Authenticated())

	principal := access.PrincipalFrom(&sec.AuthClaims{UserID: "u1", Role: "admin"})
	assert.True(t, principal.IsGlobalAdmin())
	assert.Equal(t, "u1", principal.UserID)
}
