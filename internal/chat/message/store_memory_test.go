// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package message_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/huddle/internal/chat/message"
	"github.com/taibuivan/huddle/internal/platform/apperr"
)

func seedMessage(t *testing.T, repository *message.MemoryRepository, groupID, senderID, text string) *message.Message {
	t.Helper()

	created, err := message.New(groupID, senderID, text)
	require.NoError(t, err)
	require.NoError(t, repository.Create(context.Background(), created))
	return created
}

/*
TestMemoryRepository_ToggleLikeRoundTrip likes then un-likes through toggle
and ends where it started.
*/
func TestMemoryRepository_ToggleLikeRoundTrip(t *testing.T) {
	ctx := context.Background()
	repository := message.NewMemoryRepository()
	created := seedMessage(t, repository, "g1", "bob", "hi")

	liked, added, err := repository.ToggleLike(ctx, created.ID, "alice")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, liked.LikeCount)
	assert.Equal(t, []string{"alice"}, liked.Likes)

	unliked, added, err := repository.ToggleLike(ctx, created.ID, "alice")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 0, unliked.LikeCount)
	assert.Empty(t, unliked.Likes)

	_, _, err = repository.ToggleLike(ctx, "missing", "alice")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestMemoryRepository_Unlike(t *testing.T) {
	ctx := context.Background()
	repository := message.NewMemoryRepository()
	created := seedMessage(t, repository, "g1", "bob", "hi")

	_, err := repository.Unlike(ctx, created.ID, "alice")
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	_, _, err = repository.ToggleLike(ctx, created.ID, "alice")
	require.NoError(t, err)

	after, err := repository.Unlike(ctx, created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, after.LikeCount)

	_, err = repository.Unlike(ctx, "missing", "alice")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestMemoryRepository_ConcurrentToggles runs many likers in parallel, some of
them twice, and checks the counter matches the set afterwards.
*/
func TestMemoryRepository_ConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	repository := message.NewMemoryRepository()
	created := seedMessage(t, repository, "g1", "bob", "hi")

	const likers = 40
	var wg sync.WaitGroup
	for i := range likers {
		toggles := 1 + i%2
		for range toggles {
			wg.Add(1)
			go func(userID string) {
				defer wg.Done()
				_, _, err := repository.ToggleLike(ctx, created.ID, userID)
				assert.NoError(t, err)
			}(fmt.Sprintf("user-%02d", i))
		}
	}
	wg.Wait()

	final, err := repository.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, len(final.Likes), final.LikeCount)
	assert.Equal(t, likers/2, final.LikeCount)
}

func TestMemoryRepository_ListByGroupOrder(t *testing.T) {
	ctx := context.Background()
	repository := message.NewMemoryRepository()

	first := seedMessage(t, repository, "g1", "bob", "first")
	time.Sleep(time.Millisecond)
	second := seedMessage(t, repository, "g1", "alice", "second")
	seedMessage(t, repository, "g2", "alice", "elsewhere")

	ascending, err := repository.ListByGroup(ctx, "g1", message.OrderAsc)
	require.NoError(t, err)
	require.Len(t, ascending, 2)
	assert.Equal(t, []string{first.ID, second.ID}, []string{ascending[0].ID, ascending[1].ID})

	descending, err := repository.ListByGroup(ctx, "g1", message.OrderDesc)
	require.NoError(t, err)
	require.Len(t, descending, 2)
	assert.Equal(t, []string{second.ID, first.ID}, []string{descending[0].ID, descending[1].ID})

	empty, err := repository.ListByGroup(ctx, "none", message.OrderAsc)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryRepository_Cascades(t *testing.T) {
	ctx := context.Background()
	repository := message.NewMemoryRepository()

	fromBob := seedMessage(t, repository, "g1", "bob", "hi")
	fromAlice := seedMessage(t, repository, "g1", "alice", "hello")
	other := seedMessage(t, repository, "g2", "carol", "yo")

	_, _, err := repository.ToggleLike(ctx, fromAlice.ID, "bob")
	require.NoError(t, err)

	repository.RemoveUser("bob")

	_, err = repository.FindByID(ctx, fromBob.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	kept, err := repository.FindByID(ctx, fromAlice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, kept.LikeCount)
	assert.Empty(t, kept.Likes)

	repository.DeleteByGroup("g1")
	remaining, err := repository.ListByGroup(ctx, "g1", message.OrderAsc)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = repository.FindByID(ctx, other.ID)
	assert.NoError(t, err)
}
