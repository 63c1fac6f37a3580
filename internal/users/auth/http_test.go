// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/huddle/internal/platform/constants"
	"github.com/taibuivan/huddle/internal/platform/middleware"
	"github.com/taibuivan/huddle/internal/users/auth"
)

func newRouter(f fixture) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(f.tokens, f.revocations))
	router.Mount("/user", auth.NewHandler(f.service, false).Routes())
	return router
}

func do(router http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func tokenCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == constants.TokenCookieName {
			return cookie
		}
	}
	t.Fatal("credential cookie not set")
	return nil
}

/*
TestHandler_SessionLifecycle exercises register → login → profile → logout
through the cookie credential, then confirms the revoked cookie no longer
reaches the profile.
*/
func TestHandler_SessionLifecycle(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	recorder := do(router, http.MethodPost, "/user/register", `{"username":"alice","password":"secret1","role":"user"}`)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	assert.NotContains(t, recorder.Body.String(), "password")

	recorder = do(router, http.MethodPost, "/user/login", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var login struct {
		Data struct {
			User  auth.User `json:"user"`
			Token string    `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &login))
	assert.Equal(t, "alice", login.Data.User.Username)
	assert.NotEmpty(t, login.Data.Token)

	cookie := tokenCookie(t, recorder)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, login.Data.Token, cookie.Value)

	recorder = do(router, http.MethodGet, "/user/profile", "", cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"username":"alice"`)

	recorder = do(router, http.MethodPost, "/user/logout", "", cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, -1, tokenCookie(t, recorder).MaxAge)

	recorder = do(router, http.MethodGet, "/user/profile", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestHandler_Errors(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, "/user/register", `{`, http.StatusBadRequest},
		{"short password", http.MethodPost, "/user/register", `{"username":"bob","password":"1"}`, http.StatusBadRequest},
		{"missing login fields", http.MethodPost, "/user/login", `{}`, http.StatusBadRequest},
		{"bad credentials", http.MethodPost, "/user/login", `{"username":"nobody","password":"secret1"}`, http.StatusUnauthorized},
		{"anonymous profile", http.MethodGet, "/user/profile", "", http.StatusUnauthorized},
		{"anonymous logout", http.MethodPost, "/user/logout", "", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := do(router, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, recorder.Code, recorder.Body.String())
		})
	}
}
