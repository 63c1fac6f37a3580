// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package logging builds the process-wide [slog.Logger].
//
// Development gets a colored console handler (tint); every other environment
// gets JSON lines on stdout for log shipping.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"github.com/taibuivan/huddle/internal/platform/constants"
)

// Options selects the handler flavour and minimum level.
type Options struct {
	Development bool
	Debug       bool
}

// New constructs a logger tagged with the application name.
func New(output io.Writer, options Options) *slog.Logger {
	level := slog.LevelInfo
	if options.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if options.Development {
		handler = tint.NewHandler(output, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler).With(slog.String("app", constants.AppName))
}
