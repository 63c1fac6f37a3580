// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/huddle/pkg/uuid"
)

func TestNew_IsSortableAndValid(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	assert.True(t, uuid.Valid(first))
	assert.NotEqual(t, first, second)
	assert.Equal(t, byte('7'), first[14], "version nibble")
}

func TestValid(t *testing.T) {
	assert.False(t, uuid.Valid(""))
	assert.False(t, uuid.Valid("not-a-uuid"))
	assert.False(t, uuid.Valid("{0190b0a4-5b6e-7c3d-8e9f-0a1b2c3d4e5f}"))
	assert.True(t, uuid.Valid("0190b0a4-5b6e-7c3d-8e9f-0a1b2c3d4e5f"))
}
