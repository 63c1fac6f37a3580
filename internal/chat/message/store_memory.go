// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package message

import (
	"context"
	"sort"
	"sync"

	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/pkg/slice"
)

// MemoryRepository implements [Repository] in process memory. Like changes
// happen under the write lock, so the set and the counter move together.
type MemoryRepository struct {
	mu       sync.RWMutex
	messages map[string]*Message
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{messages: make(map[string]*Message)}
}

func (repository *MemoryRepository) Create(_ context.Context, message *Message) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, exists := repository.messages[message.ID]; exists {
		return apperr.Conflict("Message already exists")
	}
	repository.messages[message.ID] = message.Clone()
	return nil
}

func (repository *MemoryRepository) FindByID(_ context.Context, id string) (*Message, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	message, found := repository.messages[id]
	if !found {
		return nil, apperr.NotFound(resourceMessage)
	}
	return message.Clone(), nil
}

func (repository *MemoryRepository) ListByGroup(_ context.Context, groupID string, order Order) ([]*Message, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	messages := make([]*Message, 0)
	for _, message := range repository.messages {
		if message.GroupID == groupID {
			messages = append(messages, message.Clone())
		}
	}

	sort.Slice(messages, func(i, j int) bool {
		if order == OrderDesc {
			i, j = j, i
		}
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (repository *MemoryRepository) ToggleLike(_ context.Context, id, userID string) (*Message, bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	message, found := repository.messages[id]
	if !found {
		return nil, false, apperr.NotFound(resourceMessage)
	}

	liked := !message.LikedBy(userID)
	if liked {
		message.Likes = append(message.Likes, userID)
	} else {
		message.Likes = slice.Without(message.Likes, userID)
	}
	message.LikeCount = len(message.Likes)
	return message.Clone(), liked, nil
}

func (repository *MemoryRepository) Unlike(_ context.Context, id, userID string) (*Message, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	message, found := repository.messages[id]
	if !found {
		return nil, apperr.NotFound(resourceMessage)
	}
	if !message.LikedBy(userID) {
		return nil, apperr.Conflict(msgNotLiked)
	}

	message.Likes = slice.Without(message.Likes, userID)
	message.LikeCount = len(message.Likes)
	return message.Clone(), nil
}

// DeleteByGroup drops every message of a deleted group.
func (repository *MemoryRepository) DeleteByGroup(groupID string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for id, message := range repository.messages {
		if message.GroupID == groupID {
			delete(repository.messages, id)
		}
	}
}

// RemoveUser drops the messages a deleted user sent and the likes they gave.
func (repository *MemoryRepository) RemoveUser(userID string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for id, message := range repository.messages {
		if message.SenderID == userID {
			delete(repository.messages, id)
			continue
		}
		if message.LikedBy(userID) {
			message.Likes = slice.Without(message.Likes, userID)
			message.LikeCount = len(message.Likes)
		}
	}
}
