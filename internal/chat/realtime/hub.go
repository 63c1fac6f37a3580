// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package realtime is the websocket room transport.

Connections exchange JSON frames {"type", "data"}. Clients may name
themselves, create and join rooms and broadcast text to a room. The server
also pushes group chat notifications into rooms named after groups.

# Session State

Every connection owns a [Session] keyed by connection id. Usernames and room
memberships live on the session and are guarded by the hub lock; nothing is
shared between connections except the room index.
*/
package realtime

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/constants"
	"github.com/taibuivan/huddle/internal/platform/metrics"
	"github.com/taibuivan/huddle/internal/platform/sec"
	"github.com/taibuivan/huddle/internal/platform/validate"
	"github.com/taibuivan/huddle/pkg/uuid"
)

// # Wire Frames

// Client frame types.
const (
	FrameSetUsername = "set-username"
	FrameCreateRoom  = "create-room"
	FrameJoinRoom    = "join-room"
	FrameMessage     = "message"
)

// Server frame types.
const (
	FrameUpdateRooms    = "update-rooms"
	FrameReceiveMessage = "receive-message"
	FrameError          = "error"
)

const (
	maxRoomLength     = 100
	maxUsernameLength = 32
	maxMessageLength  = 4000

	// sendBuffer is the per-connection outbound queue. A full queue drops
	// frames for that connection only.
	sendBuffer = 64
)

// Inbound is a frame received from a client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is a frame sent to a client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ChatMessage is the payload of a receive-message frame.
type ChatMessage struct {
	Username string `json:"username"`
	Message  string `json:"message"`
	Room     string `json:"room"`
}

type messageData struct {
	Message string `json:"message"`
	Room    string `json:"room"`
}

// RoomAuthorizer decides whether a connection may join a room.
type RoomAuthorizer interface {
	CanJoinRoom(context context.Context, claims *sec.AuthClaims, room string) bool
}

// AuthorizerFunc adapts a plain function to [RoomAuthorizer].
type AuthorizerFunc func(context context.Context, claims *sec.AuthClaims, room string) bool

// CanJoinRoom calls fn.
func (fn AuthorizerFunc) CanJoinRoom(context context.Context, claims *sec.AuthClaims, room string) bool {
	return fn(context, claims, room)
}

// # Sessions

// Session is the state of one websocket connection.
type Session struct {
	ID     string
	claims *sec.AuthClaims
	send   chan Event

	// guarded by Hub.mu
	username string
	rooms    map[string]struct{}
	closed   bool
}

// Events returns the outbound frame queue. It is closed on disconnect.
func (session *Session) Events() <-chan Event {
	return session.send
}

// # Hub

// Hub routes frames between sessions and rooms.
type Hub struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	rooms       map[string]map[*Session]struct{}
	activeRooms []string

	authorizer RoomAuthorizer
	metrics    *metrics.Registry

	done     chan struct{}
	shutdown sync.Once
}

// NewHub creates an empty hub.
func NewHub(authorizer RoomAuthorizer, metrics *metrics.Registry) *Hub {
	return &Hub{
		sessions:    make(map[string]*Session),
		rooms:       make(map[string]map[*Session]struct{}),
		activeRooms: make([]string, 0),
		authorizer:  authorizer,
		metrics:     metrics,
		done:        make(chan struct{}),
	}
}

// Shutdown signals every open connection to close. Safe to call repeatedly.
func (hub *Hub) Shutdown() {
	hub.shutdown.Do(func() { close(hub.done) })
}

// Done is closed by [Hub.Shutdown].
func (hub *Hub) Done() <-chan struct{} {
	return hub.done
}

/*
Connect registers a session for an authenticated connection.

The session starts with the credential's username and immediately receives
the current room list.
*/
func (hub *Hub) Connect(claims *sec.AuthClaims) *Session {
	session := &Session{
		ID:       uuid.New(),
		claims:   claims,
		send:     make(chan Event, sendBuffer),
		username: claims.Username,
		rooms:    make(map[string]struct{}),
	}

	hub.mu.Lock()
	hub.sessions[session.ID] = session
	hub.deliver(session, Event{Type: FrameUpdateRooms, Data: slices.Clone(hub.activeRooms)})
	hub.mu.Unlock()

	hub.metrics.ClientConnected(1)
	return session
}

// Disconnect removes the session from every room and closes its queue.
func (hub *Hub) Disconnect(session *Session) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if session.closed {
		return
	}
	session.closed = true

	for room := range session.rooms {
		hub.leave(session, room)
	}
	delete(hub.sessions, session.ID)
	close(session.send)

	hub.metrics.ClientConnected(-1)
}

/*
Handle applies one client frame.

Returns:
  - error: ValidationError for malformed frames, Forbidden for denied rooms
*/
func (hub *Hub) Handle(context context.Context, session *Session, frame Inbound) error {
	switch frame.Type {
	case FrameSetUsername:
		username, err := decodeText(frame.Data, "username", maxUsernameLength)
		if err != nil {
			return err
		}
		hub.mu.Lock()
		session.username = username
		hub.mu.Unlock()
		return nil

	case FrameCreateRoom:
		room, err := decodeText(frame.Data, "room", maxRoomLength)
		if err != nil {
			return err
		}
		return hub.join(context, session, room, true)

	case FrameJoinRoom:
		room, err := decodeText(frame.Data, "room", maxRoomLength)
		if err != nil {
			return err
		}
		return hub.join(context, session, room, false)

	case FrameMessage:
		var data messageData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return validate.ErrInvalidJSON
		}
		return hub.broadcast(session, strings.TrimSpace(data.Room), strings.TrimSpace(data.Message))
	}

	return apperr.ValidationError("Unknown frame type", apperr.FieldError{Field: "type", Message: "Unsupported frame"})
}

/*
Publish sends a server event to every session joined to room.

Used by the chat service to push group notifications.
*/
func (hub *Hub) Publish(room, event string, payload any) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for session := range hub.rooms[room] {
		hub.deliver(session, Event{Type: event, Data: payload})
	}
}

// Rooms returns the rooms created through create-room, oldest first.
func (hub *Hub) Rooms() []string {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return slices.Clone(hub.activeRooms)
}

// SendError queues an error frame for one session.
func (hub *Hub) SendError(session *Session, err error) {
	appError := apperr.As(err)
	if appError == nil {
		appError = apperr.Internal(err)
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	hub.deliver(session, Event{Type: FrameError, Data: map[string]any{
		constants.FieldError: appError.Message,
		constants.FieldCode:  appError.Code,
	}})
}

// join adds session to room. Created ad-hoc rooms are announced to every
// session; group rooms never appear in the room list.
func (hub *Hub) join(context context.Context, session *Session, room string, create bool) error {
	if hub.authorizer != nil && !hub.authorizer.CanJoinRoom(context, session.claims, room) {
		return apperr.Forbidden("You cannot join this room")
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	members, found := hub.rooms[room]
	if !found {
		members = make(map[*Session]struct{})
		hub.rooms[room] = members
	}
	members[session] = struct{}{}
	session.rooms[room] = struct{}{}

	listed := !strings.HasPrefix(room, constants.GroupRoomPrefix)
	if create && listed && !slices.Contains(hub.activeRooms, room) {
		hub.activeRooms = append(hub.activeRooms, room)
		rooms := slices.Clone(hub.activeRooms)
		for _, other := range hub.sessions {
			hub.deliver(other, Event{Type: FrameUpdateRooms, Data: rooms})
		}
	}
	return nil
}

// leave must be called with the write lock held.
func (hub *Hub) leave(session *Session, room string) {
	delete(session.rooms, room)
	if members, found := hub.rooms[room]; found {
		delete(members, session)
		if len(members) == 0 {
			delete(hub.rooms, room)
		}
	}
}

func (hub *Hub) broadcast(session *Session, room, text string) error {
	validator := &validate.Validator{}
	validator.Required("room", room).Required("message", text).MaxLen("message", text, maxMessageLength)
	if err := validator.Err(); err != nil {
		return err
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if _, joined := session.rooms[room]; !joined {
		return apperr.Forbidden("Join the room before sending to it")
	}

	event := Event{Type: FrameReceiveMessage, Data: ChatMessage{Username: session.username, Message: text, Room: room}}
	for member := range hub.rooms[room] {
		hub.deliver(member, event)
	}
	return nil
}

// deliver queues event without blocking; callers hold the hub lock, which
// keeps the queue open for the duration of the send.
func (hub *Hub) deliver(session *Session, event Event) {
	if session.closed {
		return
	}
	select {
	case session.send <- event:
	default:
	}
}

// decodeText reads a JSON string payload and validates it.
func decodeText(raw json.RawMessage, field string, maxLen int) (string, error) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", validate.RequiredError(field, "Expected a string")
	}
	value = strings.TrimSpace(value)

	validator := &validate.Validator{}
	validator.Required(field, value).MaxLen(field, value, maxLen)
	if err := validator.Err(); err != nil {
		return "", err
	}
	return value, nil
}
