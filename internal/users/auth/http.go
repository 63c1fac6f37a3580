// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/huddle/internal/platform/constants"
	"github.com/taibuivan/huddle/internal/platform/middleware"
	requestutil "github.com/taibuivan/huddle/internal/platform/request"
	"github.com/taibuivan/huddle/internal/platform/respond"
	"github.com/taibuivan/huddle/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the /user endpoints.
type Handler struct {
	authService  *Service
	cookieSecure bool
}

// NewHandler constructs a new [Handler]. cookieSecure marks the credential
// cookie Secure (HTTPS only).
func NewHandler(service *Service, cookieSecure bool) *Handler {
	return &Handler{authService: service, cookieSecure: cookieSecure}
}

// Routes returns a [chi.Router] configured with account entry points.
//
// # Endpoints
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates and sets the credential cookie.
//   - POST /logout   : Revokes the credential and clears the cookie.
//   - GET  /profile  : Returns the caller's account.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/profile", handler.profile)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

/*
Register handles the creation of a new user account.

POST /api/user/register

Response:
  - 201: User
  - 400: Validation failure or username taken
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and sets the credential cookie.

POST /api/user/login

Response:
  - 200: {user, token}
  - 401: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Login(request.Context(), LoginInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, handler.credentialCookie(result.Token, result.ExpiresAt))

	respond.OK(writer, map[string]any{
		FieldUser:  result.User,
		FieldToken: result.Token,
	})
}

/*
Logout revokes the presented credential, if any, and clears the cookie.

POST /api/user/logout

Response:
  - 200: Logged out
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.Logout(request.Context(), requestutil.Claims(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	cookie := handler.credentialCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	http.SetCookie(writer, cookie)

	respond.Message(writer, "Logged out")
}

/*
Profile returns the authenticated caller's account.

GET /api/user/profile

Response:
  - 200: {user}
  - 401: No credential
  - 404: Account deleted since the credential was issued
*/
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{FieldUser: user})
}

func (handler *Handler) credentialCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     constants.TokenCookieName,
		Value:    value,
		Path:     constants.TokenCookiePath,
		Expires:  expires,
		Secure:   handler.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
