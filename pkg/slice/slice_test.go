// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/huddle/pkg/slice"
)

func TestMap(t *testing.T) {
	assert.Nil(t, slice.Map[string, string](nil, strings.ToUpper))
	assert.Equal(t, []string{"A", "B"}, slice.Map([]string{"a", "b"}, strings.ToUpper))
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []string{}, slice.Union[string]())
	assert.Equal(t, []string{"a", "b", "c"}, slice.Union([]string{"a", "b"}, []string{"b", "c", "a"}))
}

func TestWithout(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, slice.Without([]string{"a", "b", "c", "b"}, "b"))
	assert.Equal(t, []string{}, slice.Without([]string{"a"}, "a"))
}
