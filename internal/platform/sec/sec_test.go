// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestTokenService_RoundTrip verifies issued credentials verify back to the same identity.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := NewTokenService("test-secret", "huddle.test", 3*time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := service.GenerateAccessToken("u-1", "alice", string(RoleAdmin))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(3*time.Hour), expiresAt, time.Minute)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

/*
TestTokenService_Rejects covers expiry, foreign keys and garbage input.
*/
func TestTokenService_Rejects(t *testing.T) {
	service, err := NewTokenService("test-secret", "huddle.test", time.Hour)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		token, _, err := service.GenerateAccessToken("u-1", "alice", "user")
		require.NoError(t, err)

		service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { service.now = time.Now }()

		_, err = service.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("other_secret", func(t *testing.T) {
		other, err := NewTokenService("another-secret", "huddle.test", time.Hour)
		require.NoError(t, err)
		token, _, err := other.GenerateAccessToken("u-1", "alice", "user")
		require.NoError(t, err)

		_, err = service.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := service.VerifyToken("not-a-token")
		assert.Error(t, err)
	})
}

/*
TestNewTokenService_Validation guards the constructor inputs.
*/
func TestNewTokenService_Validation(t *testing.T) {
	_, err := NewTokenService("", "huddle.test", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = NewTokenService("secret", "huddle.test", 0)
	assert.Error(t, err)
}

/*
TestPasswordHash checks bcrypt round trip.
*/
func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong horse", hash))
}

/*
TestUserRole covers role validity and ordering.
*/
func TestUserRole(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.False(t, UserRole("moderator").Valid())

	assert.True(t, RoleAdmin.AtLeast(RoleUser))
	assert.False(t, RoleUser.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.IsAdmin())
	assert.False(t, RoleUser.IsAdmin())
}
