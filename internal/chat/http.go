// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/huddle/internal/chat/message"
	"github.com/taibuivan/huddle/internal/platform/middleware"
	requestutil "github.com/taibuivan/huddle/internal/platform/request"
	"github.com/taibuivan/huddle/internal/platform/respond"
)

// Handler implements the /groups endpoints.
type Handler struct {
	chatService *Service
}

// NewHandler constructs a new chat [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{chatService: service}
}

// Routes returns a [chi.Router] with the group and message endpoints. Every
// route needs a session; finer rules are decided by the service.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listGroups)
	router.Post("/create", handler.createGroup)

	router.Route("/{id}", func(r chi.Router) {
		r.Delete("/", handler.deleteGroup)
		r.Get("/details", handler.groupDetails)
		r.Get("/candidates", handler.candidates)

		r.Post("/members/add", handler.addMember)
		r.Delete("/members/{userId}", handler.removeMember)
		r.Post("/assign-admin", handler.assignAdmin)
		r.Delete("/remove-admin/{userId}", handler.revokeAdmin)

		r.Get("/messages", handler.listMessages)
		r.Post("/messages", handler.postMessage)
		r.Post("/messages/{messageId}/like", handler.toggleLike)
		r.Post("/messages/{messageId}/unlike", handler.unlike)
	})

	return router
}

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type userRefRequest struct {
	UserID string `json:"userId"`
}

type postMessageRequest struct {
	Text string `json:"text"`
}

// # Groups

/*
GET /api/groups.

Response:
  - 200: []Group the caller administers or belongs to
*/
func (handler *Handler) listGroups(writer http.ResponseWriter, request *http.Request) {
	groups, err := handler.chatService.ListGroups(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, groups)
}

/*
POST /api/groups/create.

Request: {name, members?}

Response:
  - 201: Group
  - 400: Invalid name or unknown members
*/
func (handler *Handler) createGroup(writer http.ResponseWriter, request *http.Request) {
	var input createGroupRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.chatService.CreateGroup(request.Context(), CreateGroupInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
GET /api/groups/{id}/details.

Response:
  - 200: GroupDetails
  - 404: Group not found
*/
func (handler *Handler) groupDetails(writer http.ResponseWriter, request *http.Request) {
	details, err := handler.chatService.GroupDetails(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, details)
}

/*
GET /api/groups/{id}/candidates?q=.

Response:
  - 200: []Summary of users not yet in the group
*/
func (handler *Handler) candidates(writer http.ResponseWriter, request *http.Request) {
	users, err := handler.chatService.Candidates(request.Context(), requestutil.Param(request, "id"), request.URL.Query().Get("q"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, users)
}

/*
DELETE /api/groups/{id}.

Response:
  - 200: Deleted
  - 403: Caller is not a global admin
  - 404: Group not found
*/
func (handler *Handler) deleteGroup(writer http.ResponseWriter, request *http.Request) {
	if err := handler.chatService.DeleteGroup(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Group deleted successfully")
}

// # Membership

/*
POST /api/groups/{id}/members/add.

Request: {userId}

Response:
  - 200: Group
  - 400: Already a member
  - 404: Group or user not found
*/
func (handler *Handler) addMember(writer http.ResponseWriter, request *http.Request) {
	var input userRefRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.chatService.AddMember(request.Context(), requestutil.Param(request, "id"), input.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
DELETE /api/groups/{id}/members/{userId}.

Response:
  - 200: Group
  - 403: Caller is neither a group admin nor the member
*/
func (handler *Handler) removeMember(writer http.ResponseWriter, request *http.Request) {
	updated, err := handler.chatService.RemoveMember(request.Context(),
		requestutil.Param(request, "id"), requestutil.Param(request, "userId"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
POST /api/groups/{id}/assign-admin.

Request: {userId}

Response:
  - 200: Group
  - 400: Already an admin
  - 403: Caller is not a global admin
*/
func (handler *Handler) assignAdmin(writer http.ResponseWriter, request *http.Request) {
	var input userRefRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.chatService.AssignAdmin(request.Context(), requestutil.Param(request, "id"), input.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
DELETE /api/groups/{id}/remove-admin/{userId}.

Response:
  - 200: Group
  - 400: Last admin
  - 403: Caller is not a global admin
*/
func (handler *Handler) revokeAdmin(writer http.ResponseWriter, request *http.Request) {
	updated, err := handler.chatService.RevokeAdmin(request.Context(),
		requestutil.Param(request, "id"), requestutil.Param(request, "userId"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// # Messages

/*
GET /api/groups/{id}/messages?order=asc|desc.

Response:
  - 200: []MessageView, chronological unless order=desc
*/
func (handler *Handler) listMessages(writer http.ResponseWriter, request *http.Request) {
	order := message.ParseOrder(request.URL.Query().Get("order"))

	messages, err := handler.chatService.ListMessages(request.Context(), requestutil.Param(request, "id"), order)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messages)
}

/*
POST /api/groups/{id}/messages.

Request: {text}

Response:
  - 201: MessageView
  - 400: Empty text
*/
func (handler *Handler) postMessage(writer http.ResponseWriter, request *http.Request) {
	var input postMessageRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	posted, err := handler.chatService.PostMessage(request.Context(), requestutil.Param(request, "id"), input.Text)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, posted)
}

/*
POST /api/groups/{id}/messages/{messageId}/like.

Response:
  - 200: LikeResult
  - 404: Message not found
*/
func (handler *Handler) toggleLike(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.chatService.ToggleLike(request.Context(),
		requestutil.Param(request, "id"), requestutil.Param(request, "messageId"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
POST /api/groups/{id}/messages/{messageId}/unlike.

Response:
  - 200: MessageView
  - 400: Not liked
  - 404: Message not found
*/
func (handler *Handler) unlike(writer http.ResponseWriter, request *http.Request) {
	updated, err := handler.chatService.Unlike(request.Context(),
		requestutil.Param(request, "id"), requestutil.Param(request, "messageId"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}
