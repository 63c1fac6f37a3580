// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/huddle/internal/platform/logging"
)

func TestNew_JSONInProduction(t *testing.T) {
	var buffer bytes.Buffer
	logger := logging.New(&buffer, logging.Options{})

	logger.Info("group_created")
	logger.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &line))
	assert.Equal(t, "group_created", line["msg"])
	assert.Equal(t, "huddle", line["app"])
}

func TestNew_DebugConsole(t *testing.T) {
	var buffer bytes.Buffer
	logger := logging.New(&buffer, logging.Options{Development: true, Debug: true})

	logger.Debug("like_toggled")
	assert.Contains(t, buffer.String(), "like_toggled")
}
