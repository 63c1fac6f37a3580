// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package chat orchestrates groups, messages and authorization into the
request-level operations of the group chat.

Every operation resolves the caller from the verified credential stored in
the context, consults the [access.Gate], and only then touches storage.
Side effects that are not part of the result (domain events, realtime
notifications, metrics) never fail the operation.
*/
package chat

import (
	stdctx "context"
	"log/slog"
	"strings"

	"github.com/taibuivan/huddle/internal/chat/access"
	"github.com/taibuivan/huddle/internal/chat/group"
	"github.com/taibuivan/huddle/internal/chat/message"
	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/constants"
	"github.com/taibuivan/huddle/internal/platform/ctxutil"
	"github.com/taibuivan/huddle/internal/platform/events"
	"github.com/taibuivan/huddle/internal/platform/metrics"
	"github.com/taibuivan/huddle/internal/platform/sec"
	"github.com/taibuivan/huddle/internal/platform/validate"
	"github.com/taibuivan/huddle/internal/users/auth"
	"github.com/taibuivan/huddle/pkg/slice"
)

// # Collaborators

// Directory resolves user references. [auth.UserRepository] satisfies it.
type Directory interface {
	FindByID(context stdctx.Context, id string) (*auth.User, error)
	FindByIDs(context stdctx.Context, ids []string) ([]*auth.User, error)
	List(context stdctx.Context) ([]*auth.User, error)
}

// Notifier pushes a named event to every connection joined to room.
type Notifier interface {
	Publish(room, event string, payload any)
}

// Realtime event names sent to group rooms.
const (
	NotifyMessagePosted = "message_posted"
	NotifyLikeToggled   = "like_toggled"
)

// Options carries the optional side-effect sinks. Zero values disable them.
type Options struct {
	Events   events.Publisher
	Notifier Notifier
	Metrics  *metrics.Registry
}

// Service implements the group and message use cases.
type Service struct {
	groups   group.Repository
	messages message.Repository
	users    Directory
	gate     *access.Gate

	events   events.Publisher
	notifier Notifier
	metrics  *metrics.Registry
}

// NewService constructs a chat [Service].
func NewService(groups group.Repository, messages message.Repository, users Directory, gate *access.Gate, options Options) *Service {
	service := &Service{
		groups:   groups,
		messages: messages,
		users:    users,
		gate:     gate,
		events:   options.Events,
		notifier: options.Notifier,
		metrics:  options.Metrics,
	}
	if service.events == nil {
		service.events = events.Nop{}
	}
	return service
}

// GroupRoom names the realtime room mirroring a group.
func GroupRoom(groupID string) string {
	return constants.GroupRoomPrefix + groupID
}

func principalOf(context stdctx.Context) access.Principal {
	return access.PrincipalFrom(ctxutil.GetAuthUser(context))
}

// loadAuthorized fetches a group and checks action against it.
func (service *Service) loadAuthorized(context stdctx.Context, principal access.Principal, groupID string, action access.Action, target string) (*group.Group, error) {
	if !principal.Authenticated() {
		return nil, apperr.Unauthorized("Authentication required")
	}

	g, err := service.groups.FindByID(context, groupID)
	if err != nil {
		return nil, err
	}
	if err := service.gate.Authorize(principal, action, access.Resource{Group: g, TargetUserID: target}); err != nil {
		return nil, err
	}
	return g, nil
}

// requireUser validates a user reference and checks that it exists.
func (service *Service) requireUser(context stdctx.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return validate.RequiredError(group.FieldUserID, "User id is required")
	}
	_, err := service.users.FindByID(context, userID)
	return err
}

// # Groups

// ListGroups returns the groups the caller administers or belongs to.
func (service *Service) ListGroups(context stdctx.Context) ([]*group.Group, error) {
	principal := principalOf(context)
	if err := service.gate.Authorize(principal, access.ActionListGroups, access.Resource{}); err != nil {
		return nil, err
	}
	return service.groups.ListForUser(context, principal.UserID)
}

// CreateGroupInput describes a new group.
type CreateGroupInput struct {
	Name    string
	Members []string
}

/*
CreateGroup creates a group with the caller as its sole admin.

Returns:
  - *group.Group: Created entity
  - error: Unauthorized, ValidationError (name, unknown members)
*/
func (service *Service) CreateGroup(context stdctx.Context, input CreateGroupInput) (*group.Group, error) {
	principal := principalOf(context)
	if err := service.gate.Authorize(principal, access.ActionCreateGroup, access.Resource{}); err != nil {
		return nil, err
	}

	created, err := group.New(input.Name, principal.UserID, input.Members)
	if err != nil {
		return nil, err
	}

	if len(created.Members) > 0 {
		found, err := service.users.FindByIDs(context, created.Members)
		if err != nil {
			return nil, err
		}
		if len(found) != len(created.Members) {
			return nil, apperr.ValidationError("Invalid members", apperr.FieldError{
				Field:   group.FieldMembers,
				Message: "Unknown user in member list",
			})
		}
	}

	if err := service.groups.Create(context, created); err != nil {
		return nil, err
	}

	service.metrics.GroupCreated()
	service.emit(context, events.TypeGroupCreated, created.ID, map[string]any{
		"name":    created.Name,
		"members": created.Members,
	})
	ctxutil.GetLogger(context).InfoContext(context, "group_created",
		slog.String("group_id", created.ID),
		slog.Int("members", len(created.Members)),
	)
	return created, nil
}

/*
GroupDetails returns a group with admins and members resolved to user summaries.

Returns:
  - error: NotFound when the group is missing
*/
func (service *Service) GroupDetails(context stdctx.Context, groupID string) (*GroupDetails, error) {
	g, err := service.loadAuthorized(context, principalOf(context), groupID, access.ActionViewGroup, "")
	if err != nil {
		return nil, err
	}

	ids := slice.Union(g.Participants(), []string{g.OwnerID})
	users, err := service.users.FindByIDs(context, slice.Without(ids, ""))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*auth.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	return newGroupDetails(g, byID), nil
}

/*
AddMember appends an existing user to the group's members.

Returns:
  - *group.Group: state after the change
  - error: NotFound (group or user), Conflict (already a member)
*/
func (service *Service) AddMember(context stdctx.Context, groupID, userID string) (*group.Group, error) {
	principal := principalOf(context)
	if _, err := service.loadAuthorized(context, principal, groupID, access.ActionAddMember, ""); err != nil {
		return nil, err
	}
	if err := service.requireUser(context, userID); err != nil {
		return nil, err
	}

	updated, err := service.groups.AddMember(context, groupID, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}

	service.emit(context, events.TypeMemberAdded, groupID, map[string]any{"user_id": userID})
	ctxutil.GetLogger(context).InfoContext(context, "member_added",
		slog.String("group_id", groupID),
		slog.String("member_id", userID),
	)
	return updated, nil
}

/*
RemoveMember drops userID from the group's members.

Allowed for the group's admins and for the user removing themself. Removing
someone who is not a member succeeds without change.
*/
func (service *Service) RemoveMember(context stdctx.Context, groupID, userID string) (*group.Group, error) {
	principal := principalOf(context)
	if _, err := service.loadAuthorized(context, principal, groupID, access.ActionRemoveMember, userID); err != nil {
		return nil, err
	}

	updated, err := service.groups.RemoveMember(context, groupID, userID)
	if err != nil {
		return nil, err
	}

	service.emit(context, events.TypeMemberRemoved, groupID, map[string]any{"user_id": userID})
	ctxutil.GetLogger(context).InfoContext(context, "member_removed",
		slog.String("group_id", groupID),
		slog.String("member_id", userID),
		slog.Bool("self", userID == principal.UserID),
	)
	return updated, nil
}

// AssignAdmin grants group admin to userID. Requires the global admin role.
func (service *Service) AssignAdmin(context stdctx.Context, groupID, userID string) (*group.Group, error) {
	principal := principalOf(context)
	if err := service.gate.Authorize(principal, access.ActionAssignAdmin, access.Resource{}); err != nil {
		return nil, err
	}
	if _, err := service.groups.FindByID(context, groupID); err != nil {
		return nil, err
	}
	if err := service.requireUser(context, userID); err != nil {
		return nil, err
	}

	updated, err := service.groups.AddAdmin(context, groupID, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}

	service.emit(context, events.TypeAdminAdded, groupID, map[string]any{"user_id": userID})
	ctxutil.GetLogger(context).InfoContext(context, "group_admin_assigned",
		slog.String("group_id", groupID),
		slog.String("admin_id", userID),
	)
	return updated, nil
}

// RevokeAdmin removes group admin from userID. Requires the global admin role.
func (service *Service) RevokeAdmin(context stdctx.Context, groupID, userID string) (*group.Group, error) {
	principal := principalOf(context)
	if err := service.gate.Authorize(principal, access.ActionRevokeAdmin, access.Resource{}); err != nil {
		return nil, err
	}

	updated, err := service.groups.RemoveAdmin(context, groupID, userID)
	if err != nil {
		return nil, err
	}

	service.emit(context, events.TypeAdminRemoved, groupID, map[string]any{"user_id": userID})
	ctxutil.GetLogger(context).InfoContext(context, "group_admin_revoked",
		slog.String("group_id", groupID),
		slog.String("admin_id", userID),
	)
	return updated, nil
}

// DeleteGroup removes a group and its messages. Requires the global admin role.
func (service *Service) DeleteGroup(context stdctx.Context, groupID string) error {
	principal := principalOf(context)
	if err := service.gate.Authorize(principal, access.ActionDeleteGroup, access.Resource{}); err != nil {
		return err
	}

	if err := service.groups.Delete(context, groupID); err != nil {
		return err
	}

	service.emit(context, events.TypeGroupDeleted, groupID, nil)
	ctxutil.GetLogger(context).InfoContext(context, "group_deleted", slog.String("group_id", groupID))
	return nil
}

/*
Candidates lists users who could be added to the group: everyone who is not
already an admin or member, filtered by a case-insensitive username substring.
*/
func (service *Service) Candidates(context stdctx.Context, groupID, query string) ([]auth.Summary, error) {
	g, err := service.loadAuthorized(context, principalOf(context), groupID, access.ActionListCandidates, "")
	if err != nil {
		return nil, err
	}

	users, err := service.users.List(context)
	if err != nil {
		return nil, err
	}

	_, needle := auth.NormalizeUsername(query)
	candidates := make([]auth.Summary, 0)
	for _, user := range users {
		if g.IsParticipant(user.ID) {
			continue
		}
		if _, key := auth.NormalizeUsername(user.Username); !strings.Contains(key, needle) {
			continue
		}
		candidates = append(candidates, user.Summary())
	}
	return candidates, nil
}

// # Messages

/*
PostMessage stores a message from the caller in a group.

Returns:
  - *MessageView: the message with its sender resolved
  - error: Unauthorized, NotFound (group), ValidationError (empty text)
*/
func (service *Service) PostMessage(context stdctx.Context, groupID, text string) (*MessageView, error) {
	principal := principalOf(context)
	if _, err := service.loadAuthorized(context, principal, groupID, access.ActionPostMessage, ""); err != nil {
		return nil, err
	}

	sender, err := service.users.FindByID(context, principal.UserID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Account no longer exists")
		}
		return nil, err
	}

	created, err := message.New(groupID, sender.ID, text)
	if err != nil {
		return nil, err
	}
	if err := service.messages.Create(context, created); err != nil {
		return nil, err
	}

	service.metrics.MessagePosted()
	service.notify(groupID, NotifyMessagePosted, newMessageView(created, sender.Username, ""))
	service.emit(context, events.TypeMessagePosted, groupID, map[string]any{
		"message_id": created.ID,
		"sender_id":  sender.ID,
	})
	ctxutil.GetLogger(context).InfoContext(context, "message_posted",
		slog.String("group_id", groupID),
		slog.String("message_id", created.ID),
	)
	return newMessageView(created, sender.Username, principal.UserID), nil
}

// ListMessages returns a group's messages in the requested order with senders
// resolved and likes evaluated for the caller.
func (service *Service) ListMessages(context stdctx.Context, groupID string, order message.Order) ([]*MessageView, error) {
	principal := principalOf(context)
	if _, err := service.loadAuthorized(context, principal, groupID, access.ActionListMessages, ""); err != nil {
		return nil, err
	}

	messages, err := service.messages.ListByGroup(context, groupID, order)
	if err != nil {
		return nil, err
	}

	senderIDs := slice.Union(slice.Map(messages, func(m *message.Message) string { return m.SenderID }))
	senders, err := service.users.FindByIDs(context, senderIDs)
	if err != nil {
		return nil, err
	}

	usernames := make(map[string]string, len(senders))
	for _, sender := range senders {
		usernames[sender.ID] = sender.Username
	}

	return slice.Map(messages, func(m *message.Message) *MessageView {
		return newMessageView(m, usernames[m.SenderID], principal.UserID)
	}), nil
}

// findGroupMessage loads a message and checks it belongs to groupID.
func (service *Service) findGroupMessage(context stdctx.Context, groupID, messageID string) (*message.Message, error) {
	found, err := service.messages.FindByID(context, messageID)
	if err != nil {
		return nil, err
	}
	if found.GroupID != groupID {
		return nil, apperr.NotFound("Message")
	}
	return found, nil
}

/*
ToggleLike flips the caller's like on a message.

Two calls by the same user flip twice and restore the original count.

Returns:
  - *LikeResult: new like count and whether the caller now likes it
  - error: NotFound (group or message)
*/
func (service *Service) ToggleLike(context stdctx.Context, groupID, messageID string) (*LikeResult, error) {
	principal := principalOf(context)
	if _, err := service.loadAuthorized(context, principal, groupID, access.ActionLikeMessage, ""); err != nil {
		return nil, err
	}
	if _, err := service.findGroupMessage(context, groupID, messageID); err != nil {
		return nil, err
	}

	updated, liked, err := service.messages.ToggleLike(context, messageID, principal.UserID)
	if err != nil {
		return nil, err
	}

	result := &LikeResult{MessageID: updated.ID, Likes: updated.LikeCount, Liked: liked}
	service.afterLikeChange(context, groupID, updated, liked)
	return result, nil
}

/*
Unlike removes the caller's like from a message.

Returns:
  - error: Conflict when the caller has not liked it, NotFound (group or message)
*/
func (service *Service) Unlike(context stdctx.Context, groupID, messageID string) (*MessageView, error) {
	principal := principalOf(context)
	if _, err := service.loadAuthorized(context, principal, groupID, access.ActionLikeMessage, ""); err != nil {
		return nil, err
	}
	if _, err := service.findGroupMessage(context, groupID, messageID); err != nil {
		return nil, err
	}

	updated, err := service.messages.Unlike(context, messageID, principal.UserID)
	if err != nil {
		return nil, err
	}
	service.afterLikeChange(context, groupID, updated, false)

	var senderUsername string
	if sender, err := service.users.FindByID(context, updated.SenderID); err == nil {
		senderUsername = sender.Username
	}
	return newMessageView(updated, senderUsername, principal.UserID), nil
}

func (service *Service) afterLikeChange(context stdctx.Context, groupID string, updated *message.Message, liked bool) {
	service.metrics.LikeToggled(liked)
	service.notify(groupID, NotifyLikeToggled, map[string]any{
		"message_id": updated.ID,
		"likes":      updated.LikeCount,
	})
	service.emit(context, events.TypeLikeToggled, groupID, map[string]any{
		"message_id": updated.ID,
		"liked":      liked,
		"likes":      updated.LikeCount,
	})
	ctxutil.GetLogger(context).InfoContext(context, "like_toggled",
		slog.String("message_id", updated.ID),
		slog.Bool("liked", liked),
		slog.Int("likes", updated.LikeCount),
	)
}

// # Realtime

/*
CanJoinRoom decides whether a realtime connection may join room.

Rooms named after a group follow the group read rules; any other room is an
ad-hoc room open to every signed-in connection.
*/
func (service *Service) CanJoinRoom(context stdctx.Context, claims *sec.AuthClaims, room string) bool {
	principal := access.PrincipalFrom(claims)
	if !principal.Authenticated() {
		return false
	}

	groupID, isGroupRoom := strings.CutPrefix(room, constants.GroupRoomPrefix)
	if !isGroupRoom {
		return true
	}

	g, err := service.groups.FindByID(context, groupID)
	if err != nil {
		return false
	}
	return service.gate.Can(principal, access.ActionJoinRoom, access.Resource{Group: g})
}

// # Side Effects

func (service *Service) notify(groupID, event string, payload any) {
	if service.notifier == nil {
		return
	}
	service.notifier.Publish(GroupRoom(groupID), event, payload)
}

// emit publishes a domain event; failures are logged and swallowed.
func (service *Service) emit(context stdctx.Context, eventType, groupID string, payload map[string]any) {
	publishContext, cancel := stdctx.WithTimeout(stdctx.WithoutCancel(context), constants.EventPublishTimeout)
	defer cancel()

	event := events.Event{
		Type:    eventType,
		GroupID: groupID,
		ActorID: principalOf(context).UserID,
		Payload: payload,
	}
	if err := service.events.Publish(publishContext, event); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "event_publish_failed",
			slog.String("type", eventType),
			slog.Any("error", err),
		)
	}
}
