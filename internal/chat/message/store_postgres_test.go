// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package message_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/huddle/internal/chat/group"
	"github.com/taibuivan/huddle/internal/chat/message"
	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/postgres/pgtest"
)

// seedGroup stores a group administered by ownerID and returns its id.
func seedGroup(t *testing.T, pool *pgxpool.Pool, ownerID string) string {
	t.Helper()
	created, err := group.New("Eng", ownerID, nil)
	require.NoError(t, err)
	require.NoError(t, group.NewPostgresRepository(pool).Create(context.Background(), created))
	return created.ID
}

func TestPostgresRepository_Likes(t *testing.T) {
	pool := pgtest.Open(t)
	repository := message.NewPostgresRepository(pool)
	ctx := context.Background()

	alice := pgtest.SeedUser(t, pool, "alice", "user")
	bob := pgtest.SeedUser(t, pool, "bob", "user")
	groupID := seedGroup(t, pool, alice)

	posted, err := message.New(groupID, alice, "hello")
	require.NoError(t, err)
	require.NoError(t, repository.Create(ctx, posted))

	t.Run("unlike without a like is a conflict", func(t *testing.T) {
		_, err := repository.Unlike(ctx, posted.ID, bob)
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict), "got %v", err)
	})

	t.Run("toggle adds then removes", func(t *testing.T) {
		updated, liked, err := repository.ToggleLike(ctx, posted.ID, bob)
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, []string{bob}, updated.Likes)
		assert.Equal(t, 1, updated.LikeCount)

		updated, liked, err = repository.ToggleLike(ctx, posted.ID, bob)
		require.NoError(t, err)
		assert.False(t, liked)
		assert.Empty(t, updated.Likes)
		assert.Zero(t, updated.LikeCount)
	})

	t.Run("unlike removes an existing like", func(t *testing.T) {
		_, _, err := repository.ToggleLike(ctx, posted.ID, alice)
		require.NoError(t, err)

		updated, err := repository.Unlike(ctx, posted.ID, alice)
		require.NoError(t, err)
		assert.Zero(t, updated.LikeCount)
	})

	t.Run("unknown message", func(t *testing.T) {
		_, _, err := repository.ToggleLike(ctx, "not-a-uuid", bob)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound), "got %v", err)
	})
}

/*
TestPostgresRepository_ConcurrentToggleLike has every user toggle the same
message an odd number of times at once. The message row lock serializes the
flips, so each user ends up liking it and the counter matches the like rows.
*/
func TestPostgresRepository_ConcurrentToggleLike(t *testing.T) {
	pool := pgtest.Open(t)
	repository := message.NewPostgresRepository(pool)
	ctx := context.Background()

	owner := pgtest.SeedUser(t, pool, "owner", "user")
	posted, err := message.New(seedGroup(t, pool, owner), owner, "vote here")
	require.NoError(t, err)
	require.NoError(t, repository.Create(ctx, posted))

	const (
		voters  = 10
		toggles = 3
	)

	users := make([]string, voters)
	for i := range users {
		users[i] = pgtest.SeedUser(t, pool, fmt.Sprintf("voter%02d", i), "user")
	}

	var wg sync.WaitGroup
	for _, userID := range users {
		for range toggles {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := repository.ToggleLike(ctx, posted.ID, userID)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	found, err := repository.FindByID(ctx, posted.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, users, found.Likes)
	assert.Equal(t, len(found.Likes), found.LikeCount)
}

func TestPostgresRepository_ListByGroupOrder(t *testing.T) {
	pool := pgtest.Open(t)
	repository := message.NewPostgresRepository(pool)
	ctx := context.Background()

	owner := pgtest.SeedUser(t, pool, "owner", "user")
	groupID := seedGroup(t, pool, owner)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]string, 0, 3)
	for i, text := range []string{"first", "second", "third"} {
		posted, err := message.New(groupID, owner, text)
		require.NoError(t, err)
		posted.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repository.Create(ctx, posted))
		ids = append(ids, posted.ID)
	}

	ascending, err := repository.ListByGroup(ctx, groupID, message.OrderAsc)
	require.NoError(t, err)
	require.Len(t, ascending, 3)
	for i, posted := range ascending {
		assert.Equal(t, ids[i], posted.ID)
	}

	descending, err := repository.ListByGroup(ctx, groupID, message.OrderDesc)
	require.NoError(t, err)
	require.Len(t, descending, 3)
	assert.Equal(t, ids[2], descending[0].ID)
	assert.Equal(t, ids[0], descending[2].ID)
}
