// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package group_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/huddle/internal/chat/group"
	"github.com/taibuivan/huddle/internal/platform/apperr"
)

/*
TestNew verifies the initial membership of a freshly created group.
*/
func TestNew(t *testing.T) {
	created, err := group.New("  Eng Team ", "alice", []string{"bob", "alice", " bob ", "", "carol"})
	require.NoError(t, err)

	assert.Equal(t, "Eng Team", created.Name)
	assert.Equal(t, "eng-team", created.Slug)
	assert.Equal(t, "alice", created.OwnerID)
	assert.Equal(t, []string{"alice"}, created.Admins)
	assert.Equal(t, []string{"bob", "carol"}, created.Members)
	assert.NotContains(t, created.Members, "alice")
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestNew_NoInitialMembers(t *testing.T) {
	created, err := group.New("Eng", "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, created.Admins)
	assert.Empty(t, created.Members)
	assert.NotNil(t, created.Members)
}

func TestNew_InvalidName(t *testing.T) {
	for _, name := range []string{"", "   ", strings.Repeat("x", group.MaxNameLength+1)} {
		_, err := group.New(name, "alice", nil)
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperr.CodeValidation, appErr.Code)
		require.NotEmpty(t, appErr.Details)
		assert.Equal(t, group.FieldName, appErr.Details[0].Field)
	}
}

/*
TestParticipants checks that a user holding both roles appears once.
*/
func TestParticipants(t *testing.T) {
	g := &group.Group{Admins: []string{"alice", "bob"}, Members: []string{"bob", "carol"}}

	assert.Equal(t, []string{"alice", "bob", "carol"}, g.Participants())
	assert.True(t, g.IsParticipant("carol"))
	assert.True(t, g.IsAdmin("bob"))
	assert.True(t, g.IsMember("bob"))
	assert.False(t, g.IsMember("alice"))
	assert.False(t, g.IsParticipant("dave"))
}

func TestClone_IsDeep(t *testing.T) {
	original := &group.Group{Admins: []string{"alice"}, Members: []string{"bob"}}
	copied := original.Clone()

	copied.Admins[0] = "mallory"
	copied.Members = append(copied.Members, "eve")

	assert.Equal(t, []string{"alice"}, original.Admins)
	assert.Equal(t, []string{"bob"}, original.Members)
}
