// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/huddle/pkg/slug"
)

func TestFrom(t *testing.T) {
	cases := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"Café Crew", 0, "cafe-crew"},
		{"  Weekend -- Hikers!! ", 0, "weekend-hikers"},
		{"Tiếng Việt", 0, "tieng-viet"},
		{"日本語", 0, slug.Fallback},
		{"", 0, slug.Fallback},
		{"alpha beta gamma", 10, "alpha-beta"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, slug.From(tc.input, tc.maxLen), tc.input)
	}
}
