// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package group

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/pkg/slice"
)

// Client-facing conflict messages shared by both repositories.
const (
	msgAlreadyMember = "User is already a member"
	msgAlreadyAdmin  = "User is already an admin"
	msgLastAdmin     = "A group must keep at least one admin"
)

// MemoryRepository implements [Repository] in process memory. Every
// mutation runs under one lock, which gives the same atomicity the SQL
// repository gets from row constraints and locks.
type MemoryRepository struct {
	mu     sync.RWMutex
	groups map[string]*Group

	// onDelete runs under the lock after a group is removed so dependents
	// (messages) can cascade like the SQL foreign keys do.
	onDelete func(groupID string)
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{groups: make(map[string]*Group)}
}

// OnDelete registers a cascade hook invoked after a group is deleted.
func (repository *MemoryRepository) OnDelete(hook func(groupID string)) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.onDelete = hook
}

func (repository *MemoryRepository) Create(_ context.Context, group *Group) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, exists := repository.groups[group.ID]; exists {
		return apperr.Conflict("Group already exists")
	}
	repository.groups[group.ID] = group.Clone()
	return nil
}

func (repository *MemoryRepository) FindByID(_ context.Context, id string) (*Group, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	group, found := repository.groups[id]
	if !found {
		return nil, apperr.NotFound(resourceGroup)
	}
	return group.Clone(), nil
}

func (repository *MemoryRepository) ListForUser(_ context.Context, userID string) ([]*Group, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	groups := make([]*Group, 0)
	for _, group := range repository.groups {
		if group.IsParticipant(userID) {
			groups = append(groups, group.Clone())
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].CreatedAt.Equal(groups[j].CreatedAt) {
			return groups[i].ID < groups[j].ID
		}
		return groups[i].CreatedAt.Before(groups[j].CreatedAt)
	})
	return groups, nil
}

// mutate applies change to the stored group under the write lock.
func (repository *MemoryRepository) mutate(groupID string, change func(group *Group) error) (*Group, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	group, found := repository.groups[groupID]
	if !found {
		return nil, apperr.NotFound(resourceGroup)
	}
	if err := change(group); err != nil {
		return nil, err
	}
	return group.Clone(), nil
}

func (repository *MemoryRepository) AddMember(_ context.Context, groupID, userID string) (*Group, error) {
	return repository.mutate(groupID, func(group *Group) error {
		if group.IsMember(userID) {
			return apperr.Conflict(msgAlreadyMember)
		}
		group.Members = append(group.Members, userID)
		return nil
	})
}

func (repository *MemoryRepository) RemoveMember(_ context.Context, groupID, userID string) (*Group, error) {
	return repository.mutate(groupID, func(group *Group) error {
		group.Members = slice.Without(group.Members, userID)
		return nil
	})
}

func (repository *MemoryRepository) AddAdmin(_ context.Context, groupID, userID string) (*Group, error) {
	return repository.mutate(groupID, func(group *Group) error {
		if group.IsAdmin(userID) {
			return apperr.Conflict(msgAlreadyAdmin)
		}
		group.Admins = append(group.Admins, userID)
		return nil
	})
}

func (repository *MemoryRepository) RemoveAdmin(_ context.Context, groupID, userID string) (*Group, error) {
	return repository.mutate(groupID, func(group *Group) error {
		if !slices.Contains(group.Admins, userID) {
			return nil
		}
		if len(group.Admins) == 1 {
			return apperr.Conflict(msgLastAdmin)
		}
		group.Admins = slice.Without(group.Admins, userID)
		return nil
	})
}

func (repository *MemoryRepository) Delete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, found := repository.groups[id]; !found {
		return apperr.NotFound(resourceGroup)
	}
	delete(repository.groups, id)

	if repository.onDelete != nil {
		repository.onDelete(id)
	}
	return nil
}

// RemoveUser drops userID from every admin and member list, mirroring the
// SQL cascade on account deletion. A group losing its only admin promotes its
// earliest remaining member; a group left with no participant is deleted.
func (repository *MemoryRepository) RemoveUser(userID string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for id, group := range repository.groups {
		wasAdmin := slices.Contains(group.Admins, userID)
		group.Admins = slice.Without(group.Admins, userID)
		group.Members = slice.Without(group.Members, userID)
		if group.OwnerID == userID {
			group.OwnerID = ""
		}

		if !wasAdmin || len(group.Admins) > 0 {
			continue
		}
		if len(group.Members) == 0 {
			delete(repository.groups, id)
			if repository.onDelete != nil {
				repository.onDelete(id)
			}
			continue
		}
		group.Admins = []string{group.Members[0]}
		group.Members = slices.Clone(group.Members[1:])
	}
}
