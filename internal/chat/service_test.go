// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chat_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/huddle/internal/chat"
	"github.com/taibuivan/huddle/internal/chat/access"
	"github.com/taibuivan/huddle/internal/chat/group"
	"github.com/taibuivan/huddle/internal/chat/message"
	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/ctxutil"
	"github.com/taibuivan/huddle/internal/platform/events"
	"github.com/taibuivan/huddle/internal/platform/sec"
	"github.com/taibuivan/huddle/internal/users/auth"
)

// # Fakes

type recordedEvent struct {
	Type    string
	GroupID string
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
	fail   bool
}

func (recorder *eventRecorder) Publish(_ context.Context, event events.Event) error {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if recorder.fail {
		return errors.New("broker down")
	}
	recorder.events = append(recorder.events, recordedEvent{Type: event.Type, GroupID: event.GroupID})
	return nil
}

func (recorder *eventRecorder) Close() error { return nil }

func (recorder *eventRecorder) types() []string {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	types := make([]string, 0, len(recorder.events))
	for _, event := range recorder.events {
		types = append(types, event.Type)
	}
	return types
}

type notification struct {
	Room  string
	Event string
}

type notifierRecorder struct {
	mu   sync.Mutex
	sent []notification
}

func (recorder *notifierRecorder) Publish(room, event string, _ any) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.sent = append(recorder.sent, notification{Room: room, Event: event})
}

// # Fixture

type fixture struct {
	service  *chat.Service
	users    *auth.MemoryUserRepository
	groups   *group.MemoryRepository
	messages *message.MemoryRepository
	events   *eventRecorder
	notifier *notifierRecorder

	admin *auth.User
	alice *auth.User
	bob   *auth.User
	carol *auth.User
}

func newFixture(t *testing.T, options access.Options) *fixture {
	t.Helper()

	f := &fixture{
		users:    auth.NewMemoryUserRepository(),
		groups:   group.NewMemoryRepository(),
		messages: message.NewMemoryRepository(),
		events:   &eventRecorder{},
		notifier: &notifierRecorder{},
	}
	f.groups.OnDelete(f.messages.DeleteByGroup)

	f.service = chat.NewService(f.groups, f.messages, f.users, access.NewGate(options), chat.Options{
		Events:   f.events,
		Notifier: f.notifier,
	})

	f.admin = f.addUser(t, "root", sec.RoleAdmin)
	f.alice = f.addUser(t, "alice", sec.RoleUser)
	f.bob = f.addUser(t, "bob", sec.RoleUser)
	f.carol = f.addUser(t, "carol", sec.RoleUser)
	return f
}

func (f *fixture) addUser(t *testing.T, username string, role sec.UserRole) *auth.User {
	t.Helper()
	user := &auth.User{ID: "id-" + username, Username: username, Role: role}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

// as returns a context carrying the user's credentials.
func as(user *auth.User) context.Context {
	claims := &sec.AuthClaims{UserID: user.ID, Username: user.Username, Role: string(user.Role)}
	return ctxutil.WithAuthUser(context.Background(), claims, "")
}

func (f *fixture) createGroup(t *testing.T, creator *auth.User, name string, members ...string) *group.Group {
	t.Helper()
	created, err := f.service.CreateGroup(as(creator), chat.CreateGroupInput{Name: name, Members: members})
	require.NoError(t, err)
	return created
}

// # Scenarios

/*
TestScenario_EngGroup walks through creating a group, adding a member,
posting and toggling a like twice.
*/
func TestScenario_EngGroup(t *testing.T) {
	f := newFixture(t, access.Options{})

	eng := f.createGroup(t, f.admin, "Eng")
	assert.Equal(t, []string{f.admin.ID}, eng.Admins)
	assert.Empty(t, eng.Members)

	withBob, err := f.service.AddMember(as(f.admin), eng.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID}, withBob.Members)

	posted, err := f.service.PostMessage(as(f.bob), eng.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, "bob", posted.SenderUsername)
	assert.Zero(t, posted.LikeCount)

	listed, err := f.service.ListMessages(as(f.admin), eng.ID, message.OrderAsc)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, f.bob.ID, listed[0].SenderID)
	assert.Equal(t, 0, listed[0].LikeCount)

	liked, err := f.service.ToggleLike(as(f.admin), eng.ID, posted.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)
	assert.True(t, liked.Liked)

	afterLike, err := f.service.ListMessages(as(f.admin), eng.ID, message.OrderAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{f.admin.ID}, afterLike[0].Likes)
	assert.True(t, afterLike[0].LikedByCaller)

	unliked, err := f.service.ToggleLike(as(f.admin), eng.ID, posted.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.Likes)
	assert.False(t, unliked.Liked)

	final, err := f.service.ListMessages(as(f.bob), eng.ID, message.OrderAsc)
	require.NoError(t, err)
	assert.Empty(t, final[0].Likes)
	assert.False(t, final[0].LikedByCaller)

	assert.Equal(t, []string{
		events.TypeGroupCreated, events.TypeMemberAdded, events.TypeMessagePosted,
		events.TypeLikeToggled, events.TypeLikeToggled,
	}, f.events.types())

	room := chat.GroupRoom(eng.ID)
	assert.Equal(t, []notification{
		{room, chat.NotifyMessagePosted},
		{room, chat.NotifyLikeToggled},
		{room, chat.NotifyLikeToggled},
	}, f.notifier.sent)
}

func TestDeleteGroup(t *testing.T) {
	f := newFixture(t, access.Options{})
	eng := f.createGroup(t, f.alice, "Eng", f.bob.ID)
	_, err := f.service.PostMessage(as(f.bob), eng.ID, "hello")
	require.NoError(t, err)

	t.Run("group admin without global role is forbidden", func(t *testing.T) {
		err := f.service.DeleteGroup(as(f.alice), eng.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		err := f.service.DeleteGroup(as(f.carol), eng.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		err := f.service.DeleteGroup(context.Background(), eng.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	})

	t.Run("global admin deletes and messages cascade", func(t *testing.T) {
		require.NoError(t, f.service.DeleteGroup(as(f.admin), eng.ID))

		_, err := f.service.GroupDetails(as(f.admin), eng.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

		remaining, err := f.messages.ListByGroup(context.Background(), eng.ID, message.OrderAsc)
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("missing group", func(t *testing.T) {
		err := f.service.DeleteGroup(as(f.admin), eng.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})
}

/*
TestDeleteUser_HandsOverSoleAdmin removes a group's only admin through the
account store; the earliest remaining member takes over and a group left
without participants disappears together with its messages.
*/
func TestDeleteUser_HandsOverSoleAdmin(t *testing.T) {
	f := newFixture(t, access.Options{})
	f.users.OnDelete(f.groups.RemoveUser)
	f.users.OnDelete(f.messages.RemoveUser)

	eng := f.createGroup(t, f.alice, "Eng", f.bob.ID, f.carol.ID)
	solo := f.createGroup(t, f.alice, "Solo")
	_, err := f.service.PostMessage(as(f.alice), solo.ID, "note to self")
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(context.Background(), f.alice.ID))

	stored, err := f.groups.FindByID(context.Background(), eng.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID}, stored.Admins)
	assert.Equal(t, []string{f.carol.ID}, stored.Members)

	updated, err := f.service.AddMember(as(f.bob), eng.ID, f.admin.ID)
	require.NoError(t, err, "promoted member manages the group")
	assert.Contains(t, updated.Members, f.admin.ID)

	_, err = f.service.GroupDetails(as(f.admin), solo.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	remaining, err := f.messages.ListByGroup(context.Background(), solo.ID, message.OrderAsc)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

// # Properties

func TestCreateGroup_CreatorIsSoleAdminNotMember(t *testing.T) {
	f := newFixture(t, access.Options{})

	created := f.createGroup(t, f.alice, "Eng", f.alice.ID, f.bob.ID, f.bob.ID)
	assert.Equal(t, []string{f.alice.ID}, created.Admins)
	assert.Equal(t, []string{f.bob.ID}, created.Members)

	_, err := f.service.CreateGroup(as(f.alice), chat.CreateGroupInput{Name: "Ghosts", Members: []string{"nobody"}})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = f.service.CreateGroup(as(f.alice), chat.CreateGroupInput{Name: "   "})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = f.service.CreateGroup(context.Background(), chat.CreateGroupInput{Name: "Eng"})
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}

func TestAddMember(t *testing.T) {
	f := newFixture(t, access.Options{})
	eng := f.createGroup(t, f.alice, "Eng", f.bob.ID)

	t.Run("duplicate is a conflict and state is unchanged", func(t *testing.T) {
		_, err := f.service.AddMember(as(f.alice), eng.ID, f.bob.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

		details, err := f.service.GroupDetails(as(f.alice), eng.ID)
		require.NoError(t, err)
		require.Len(t, details.Members, 1)
		assert.Equal(t, "bob", details.Members[0].Username)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.service.AddMember(as(f.alice), eng.ID, "nobody")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("missing user id", func(t *testing.T) {
		_, err := f.service.AddMember(as(f.alice), eng.ID, " ")
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})

	t.Run("missing group", func(t *testing.T) {
		_, err := f.service.AddMember(as(f.alice), "missing", f.carol.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("any signed-in user may add", func(t *testing.T) {
		updated, err := f.service.AddMember(as(f.carol), eng.ID, f.carol.ID)
		require.NoError(t, err)
		assert.True(t, updated.IsMember(f.carol.ID))
	})

	t.Run("admin added as member keeps one participant entry", func(t *testing.T) {
		_, err := f.service.AddMember(as(f.alice), eng.ID, f.alice.ID)
		require.NoError(t, err)

		groups, err := f.service.ListGroups(as(f.alice))
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, []string{f.alice.ID, f.bob.ID, f.carol.ID}, groups[0].Participants())
	})
}

/*
TestRemoveMember checks the group-admin-or-self rule.
*/
func TestRemoveMember(t *testing.T) {
	f := newFixture(t, access.Options{})
	eng := f.createGroup(t, f.alice, "Eng", f.bob.ID, f.carol.ID)

	_, err := f.service.RemoveMember(as(f.bob), eng.ID, f.carol.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	updated, err := f.service.RemoveMember(as(f.bob), eng.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.carol.ID}, updated.Members)

	again, err := f.service.RemoveMember(as(f.bob), eng.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.carol.ID}, again.Members)

	stranger, err := f.service.RemoveMember(as(f.admin), eng.ID, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.carol.ID}, stranger.Members)

	byAdmin, err := f.service.RemoveMember(as(f.alice), eng.ID, f.carol.ID)
	require.NoError(t, err)
	assert.Empty(t, byAdmin.Members)

	_, err = f.service.RemoveMember(as(f.alice), "missing", f.carol.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestAssignAndRevokeAdmin(t *testing.T) {
	f := newFixture(t, access.Options{})
	eng := f.createGroup(t, f.alice, "Eng", f.bob.ID)

	_, err := f.service.AssignAdmin(as(f.alice), eng.ID, f.bob.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden), "group admin is not a global admin")

	promoted, err := f.service.AssignAdmin(as(f.admin), eng.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.alice.ID, f.bob.ID}, promoted.Admins)

	_, err = f.service.AssignAdmin(as(f.admin), eng.ID, f.bob.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	_, err = f.service.AssignAdmin(as(f.admin), "missing", f.bob.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = f.service.AssignAdmin(as(f.admin), eng.ID, "nobody")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	noop, err := f.service.RevokeAdmin(as(f.admin), eng.ID, f.carol.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.alice.ID, f.bob.ID}, noop.Admins)

	_, err = f.service.RevokeAdmin(as(f.bob), eng.ID, f.alice.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	demoted, err := f.service.RevokeAdmin(as(f.admin), eng.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID}, demoted.Admins)

	_, err = f.service.RevokeAdmin(as(f.admin), eng.ID, f.bob.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict), "last admin stays")
}

func TestGroupDetails_ResolvesUsers(t *testing.T) {
	f := newFixture(t, access.Options{})
	eng := f.createGroup(t, f.alice, "Eng", f.bob.ID, f.carol.ID)

	require.NoError(t, f.users.Delete(context.Background(), f.carol.ID))

	details, err := f.service.GroupDetails(as(f.bob), eng.ID)
	require.NoError(t, err)
	require.NotNil(t, details.Owner)
	assert.Equal(t, "alice", details.Owner.Username)
	require.Len(t, details.Admins, 1)
	assert.Equal(t, auth.Summary{ID: f.alice.ID, Username: "alice", Role: sec.RoleUser}, details.Admins[0])
	require.Len(t, details.Members, 1)
	assert.Equal(t, "bob", details.Members[0].Username)
}

func TestListGroups(t *testing.T) {
	f := newFixture(t, access.Options{})
	first := f.createGroup(t, f.alice, "First", f.bob.ID)
	time.Sleep(time.Millisecond)
	second := f.createGroup(t, f.bob, "Second")
	f.createGroup(t, f.carol, "Other")

	groups, err := f.service.ListGroups(as(f.bob))
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, first.ID, groups[0].ID)
	assert.Equal(t, second.ID, groups[1].ID)

	_, err = f.service.ListGroups(context.Background())
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}

func TestMessages(t *testing.T) {
	f := newFixture(t, access.Options{})
	eng := f.createGroup(t, f.alice, "Eng", f.bob.ID)

	first, err := f.service.PostMessage(as(f.bob), eng.ID, "  first  ")
	require.NoError(t, err)
	assert.Equal(t, "first", first.Text)
	time.Sleep(time.Millisecond)
	second, err := f.service.PostMessage(as(f.alice), eng.ID, "second")
	require.NoError(t, err)

	t.Run("empty text", func(t *testing.T) {
		_, err := f.service.PostMessage(as(f.bob), eng.ID, " \n ")
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})

	t.Run("missing group", func(t *testing.T) {
		_, err := f.service.PostMessage(as(f.bob), "missing", "hi")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.service.ListMessages(context.Background(), eng.ID, message.OrderAsc)
		assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	})

	t.Run("order", func(t *testing.T) {
		ascending, err := f.service.ListMessages(as(f.bob), eng.ID, message.OrderAsc)
		require.NoError(t, err)
		require.Len(t, ascending, 2)
		assert.Equal(t, first.ID, ascending[0].ID)
		assert.Equal(t, "alice", ascending[1].SenderUsername)

		descending, err := f.service.ListMessages(as(f.bob), eng.ID, message.OrderDesc)
		require.NoError(t, err)
		assert.Equal(t, second.ID, descending[0].ID)
	})

	t.Run("like on a message of another group is not found", func(t *testing.T) {
		other := f.createGroup(t, f.carol, "Other")
		_, err := f.service.ToggleLike(as(f.bob), other.ID, first.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("unlike", func(t *testing.T) {
		_, err := f.service.Unlike(as(f.alice), eng.ID, first.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

		_, err = f.service.ToggleLike(as(f.alice), eng.ID, first.ID)
		require.NoError(t, err)

		view, err := f.service.Unlike(as(f.alice), eng.ID, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, view.LikeCount)
		assert.Equal(t, "bob", view.SenderUsername)

		_, err = f.service.Unlike(as(f.alice), eng.ID, "missing")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})
}

/*
TestToggleLike_Concurrent runs interleaved togglers through the service and
checks the count equals the like set afterwards.
*/
func TestToggleLike_Concurrent(t *testing.T) {
	f := newFixture(t, access.Options{})
	eng := f.createGroup(t, f.alice, "Eng")
	posted, err := f.service.PostMessage(as(f.alice), eng.ID, "vote")
	require.NoError(t, err)

	likers := make([]*auth.User, 0, 30)
	for i := range 30 {
		likers = append(likers, f.addUser(t, fmt.Sprintf("liker%02d", i), sec.RoleUser))
	}

	var wg sync.WaitGroup
	for i, liker := range likers {
		for range 1 + i%3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.service.ToggleLike(as(liker), eng.ID, posted.ID)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	listed, err := f.service.ListMessages(as(f.alice), eng.ID, message.OrderAsc)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, len(listed[0].Likes), listed[0].LikeCount)
	assert.Equal(t, 20, listed[0].LikeCount)
}

func TestCandidates(t *testing.T) {
	f := newFixture(t, access.Options{})
	eng := f.createGroup(t, f.alice, "Eng", f.bob.ID)

	all, err := f.service.Candidates(as(f.alice), eng.ID, "")
	require.NoError(t, err)
	usernames := make([]string, 0, len(all))
	for _, candidate := range all {
		usernames = append(usernames, candidate.Username)
	}
	assert.ElementsMatch(t, []string{"root", "carol"}, usernames)

	filtered, err := f.service.Candidates(as(f.alice), eng.ID, "CAR")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, f.carol.ID, filtered[0].ID)
}

/*
TestStrictParticipation checks that outsiders lose read and write access
when participation is enforced.
*/
func TestStrictParticipation(t *testing.T) {
	f := newFixture(t, access.Options{StrictParticipation: true})
	eng := f.createGroup(t, f.alice, "Eng", f.bob.ID)

	_, err := f.service.PostMessage(as(f.carol), eng.ID, "let me in")
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = f.service.ListMessages(as(f.carol), eng.ID, message.OrderAsc)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = f.service.AddMember(as(f.carol), eng.ID, f.carol.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = f.service.PostMessage(as(f.bob), eng.ID, "member can post")
	assert.NoError(t, err)

	_, err = f.service.ListMessages(as(f.admin), eng.ID, message.OrderAsc)
	assert.NoError(t, err)
}

func TestCanJoinRoom(t *testing.T) {
	f := newFixture(t, access.Options{StrictParticipation: true})
	eng := f.createGroup(t, f.alice, "Eng", f.bob.ID)
	ctx := context.Background()

	claimsOf := func(user *auth.User) *sec.AuthClaims {
		return &sec.AuthClaims{UserID: user.ID, Role: string(user.Role)}
	}

	assert.True(t, f.service.CanJoinRoom(ctx, claimsOf(f.bob), chat.GroupRoom(eng.ID)))
	assert.False(t, f.service.CanJoinRoom(ctx, claimsOf(f.carol), chat.GroupRoom(eng.ID)))
	assert.False(t, f.service.CanJoinRoom(ctx, claimsOf(f.bob), chat.GroupRoom("missing")))
	assert.True(t, f.service.CanJoinRoom(ctx, claimsOf(f.carol), "lobby"))
	assert.False(t, f.service.CanJoinRoom(ctx, nil, "lobby"))
}

func TestEventFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t, access.Options{})
	f.events.fail = true

	created, err := f.service.CreateGroup(as(f.alice), chat.CreateGroupInput{Name: "Eng"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}
