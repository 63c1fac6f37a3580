// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/huddle/internal/platform/middleware"
	requestutil "github.com/taibuivan/huddle/internal/platform/request"
	"github.com/taibuivan/huddle/internal/platform/respond"
)

// Handler implements the /admin endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account management endpoints.
//
// Every route needs a session; the service decides who may do what.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/users", handler.list)
	router.Post("/users/add", handler.add)
	router.Put("/users/edit/{id}", handler.edit)
	router.Delete("/users/delete/{id}", handler.remove)

	return router
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

/*
GET /api/admin/users.

Response:
  - 200: {users}
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	users, err := handler.accountService.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"users": users})
}

/*
POST /api/admin/users/add.

Response:
  - 201: User
  - 400: Missing fields, invalid role or username taken
*/
func (handler *Handler) add(writer http.ResponseWriter, request *http.Request) {
	var input userRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Add(request.Context(), AddInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
PUT /api/admin/users/edit/{id}.

Response:
  - 200: User
  - 404: Account not found
*/
func (handler *Handler) edit(writer http.ResponseWriter, request *http.Request) {
	var input userRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Edit(request.Context(), requestutil.Param(request, "id"), EditInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/admin/users/delete/{id}.

Response:
  - 200: Deleted
  - 404: Account not found
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	if err := handler.accountService.Delete(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "User deleted successfully")
}
