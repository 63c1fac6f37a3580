// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package group defines chat groups and their membership sets, and the
repositories that persist them.

# Membership Model

A group has an ordered admin list and a member list. The creator becomes the
first admin and is recorded as owner. The two lists are independent: adding a
member never consults the admin list, so a user may appear in both. Every
participant-derived view uses admins ∪ members.
*/
package group

import (
	"slices"
	"strings"
	"time"

	"github.com/taibuivan/huddle/internal/platform/validate"
	"github.com/taibuivan/huddle/pkg/slice"
	"github.com/taibuivan/huddle/pkg/slug"
	"github.com/taibuivan/huddle/pkg/uuid"
)

// # Domain Entities

// Group is a named chat room with its membership.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Admins    []string  `json:"admins"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// Field names used in validation errors.
const (
	FieldName     = "name"
	FieldMembers  = "members"
	FieldUserID   = "userId"
	MaxNameLength = 100
	maxSlugLength = 120
	resourceGroup = "Group"
)

/*
New builds a group owned by creatorID.

The creator is the sole initial admin. initialMembers is deduplicated and
never contains the creator.

Returns:
  - *Group: not yet persisted
  - error: ValidationError when the trimmed name is empty or too long
*/
func New(name, creatorID string, initialMembers []string) (*Group, error) {
	name = strings.TrimSpace(name)

	validator := &validate.Validator{}
	validator.Required(FieldName, name).MaxLen(FieldName, name, MaxNameLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	cleaned := make([]string, 0, len(initialMembers))
	for _, id := range initialMembers {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}

	return &Group{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug.From(name, maxSlugLength),
		OwnerID:   creatorID,
		Admins:    []string{creatorID},
		Members:   slice.Without(slice.Union(cleaned), creatorID),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsAdmin reports whether userID holds group-level admin.
func (group *Group) IsAdmin(userID string) bool {
	return slices.Contains(group.Admins, userID)
}

// IsMember reports whether userID is in the member list.
func (group *Group) IsMember(userID string) bool {
	return slices.Contains(group.Members, userID)
}

// IsParticipant reports whether userID is an admin or a member.
func (group *Group) IsParticipant(userID string) bool {
	return group.IsAdmin(userID) || group.IsMember(userID)
}

// Participants returns admins ∪ members, admins first, each id once.
func (group *Group) Participants() []string {
	return slice.Union(group.Admins, group.Members)
}

// Clone returns a deep copy.
func (group *Group) Clone() *Group {
	copied := *group
	copied.Admins = slices.Clone(group.Admins)
	copied.Members = slices.Clone(group.Members)
	if copied.Admins == nil {
		copied.Admins = []string{}
	}
	if copied.Members == nil {
		copied.Members = []string{}
	}
	return &copied
}
