// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/huddle/internal/platform/apperr"
)

// # In-Memory User Repository

// MemoryUserRepository implements [UserRepository] in process memory.
// Used by the memory storage driver and by tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	byID  map[string]*User
	byKey map[string]string
	clock func() time.Time

	// onDelete lets dependent stores drop rows that reference the account.
	onDelete []func(userID string)
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:  make(map[string]*User),
		byKey: make(map[string]string),
		clock: time.Now,
	}
}

// OnDelete registers a cascade hook invoked after an account is deleted.
func (repository *MemoryUserRepository) OnDelete(hook func(userID string)) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.onDelete = append(repository.onDelete, hook)
}

func cloneUser(user *User) *User {
	copied := *user
	return &copied
}

func (repository *MemoryUserRepository) Create(_ context.Context, user *User) error {
	_, key := NormalizeUsername(user.Username)

	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, taken := repository.byKey[key]; taken {
		return apperr.Conflict("Username already exists")
	}
	if _, taken := repository.byID[user.ID]; taken {
		return apperr.Conflict("Account already exists")
	}

	now := repository.clock().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	repository.byID[user.ID] = cloneUser(user)
	repository.byKey[key] = user.ID
	return nil
}

func (repository *MemoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	user, found := repository.byID[id]
	if !found {
		return nil, apperr.NotFound(resourceAccount)
	}
	return cloneUser(user), nil
}

func (repository *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	_, key := NormalizeUsername(username)

	repository.mu.RLock()
	defer repository.mu.RUnlock()

	id, found := repository.byKey[key]
	if !found {
		return nil, apperr.NotFound(resourceAccount)
	}
	return cloneUser(repository.byID[id]), nil
}

func (repository *MemoryUserRepository) FindByIDs(_ context.Context, ids []string) ([]*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	users := make([]*User, 0, len(ids))
	for _, id := range ids {
		if user, found := repository.byID[id]; found {
			users = append(users, cloneUser(user))
		}
	}
	return users, nil
}

func (repository *MemoryUserRepository) List(_ context.Context) ([]*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	keys := make([]string, 0, len(repository.byKey))
	for key := range repository.byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	users := make([]*User, 0, len(keys))
	for _, key := range keys {
		users = append(users, cloneUser(repository.byID[repository.byKey[key]]))
	}
	return users, nil
}

func (repository *MemoryUserRepository) CountByRole(_ context.Context, role string) (int, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()
	return repository.countRole(role), nil
}

// countRole expects the caller to hold the lock.
func (repository *MemoryUserRepository) countRole(role string) int {
	count := 0
	for _, user := range repository.byID {
		if string(user.Role) == role {
			count++
		}
	}
	return count
}

// lastAdmin reports whether existing is the only administrator left.
func (repository *MemoryUserRepository) lastAdmin(existing *User) bool {
	return existing.Role.IsAdmin() && repository.countRole(string(existing.Role)) <= 1
}

func (repository *MemoryUserRepository) Update(_ context.Context, user *User) error {
	_, key := NormalizeUsername(user.Username)

	repository.mu.Lock()
	defer repository.mu.Unlock()

	existing, found := repository.byID[user.ID]
	if !found {
		return apperr.NotFound(resourceAccount)
	}
	if owner, taken := repository.byKey[key]; taken && owner != user.ID {
		return apperr.Conflict("Username already exists")
	}
	if !user.Role.IsAdmin() && repository.lastAdmin(existing) {
		return apperr.Conflict(MsgLastAdministrator)
	}

	_, oldKey := NormalizeUsername(existing.Username)
	delete(repository.byKey, oldKey)

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = repository.clock().UTC()
	repository.byID[user.ID] = cloneUser(user)
	repository.byKey[key] = user.ID
	return nil
}

func (repository *MemoryUserRepository) Delete(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, found := repository.byID[id]
	if !found {
		return apperr.NotFound(resourceAccount)
	}
	if repository.lastAdmin(user) {
		return apperr.Conflict(MsgLastAdministrator)
	}

	_, key := NormalizeUsername(user.Username)
	delete(repository.byKey, key)
	delete(repository.byID, id)

	for _, hook := range repository.onDelete {
		hook(id)
	}
	return nil
}

// # In-Memory Revocation Store

// MemoryRevocationStore implements [RevocationStore] for single-process
// deployments and tests. Expired entries are dropped lazily on lookup.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   func() time.Time
}

// NewMemoryRevocationStore creates an empty store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]time.Time), clock: time.Now}
}

func (store *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if until.After(store.clock()) {
		store.revoked[tokenID] = until
	}
	return nil
}

func (store *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	until, found := store.revoked[tokenID]
	if !found {
		return false, nil
	}
	if !until.After(store.clock()) {
		delete(store.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
