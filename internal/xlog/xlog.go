// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package xlog provides helpers that log through an optional *slog.Logger.

The codec packages carry a logger in their configuration that may be nil.
Calling a method on a nil *slog.Logger panics, so the functions of this
package check the logger first. A nil logger disables output, which is the
default for readers and writers.

Pretty defers the formatting of large values until a handler actually
emits the record.
*/
package xlog

import (
	"context"
	"log/slog"

	"github.com/kr/pretty"
)

// Debug logs at debug level. If the logger is nil nothing is logged.
func Debug(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Debug(msg, args...)
	}
}

// Info logs at info level. If the logger is nil nothing is logged.
func Info(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Info(msg, args...)
	}
}

// Warn logs at warning level. If the logger is nil nothing is logged.
func Warn(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Warn(msg, args...)
	}
}

// Enabled reports whether l logs records at the given level.
func Enabled(l *slog.Logger, level slog.Level) bool {
	return l != nil && l.Enabled(context.Background(), level)
}

type prettyValue struct{ v any }

func (p prettyValue) LogValue() slog.Value {
	return slog.StringValue(pretty.Sprint(p.v))
}

// Pretty returns a log value that renders v with github.com/kr/pretty.
func Pretty(v any) slog.LogValuer { return prettyValue{v} }
