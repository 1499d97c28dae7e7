// Copyright (c) 2025-present deep.rent GmbH (https://www.deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger constructs the structured loggers used across warden.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a structured logger writing to stdout. Both arguments are
// case-insensitive and trimmed.
//
// Supported levels:
//
//	debug  -> slog.LevelDebug
//	info   -> slog.LevelInfo (default for empty/unknown)
//	warn   -> slog.LevelWarn
//	error  -> slog.LevelError
//	silent -> returns the result of Silent() (no output)
//
// Supported formats are "json" (default) and "text".
func New(level, format string) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		l = slog.LevelDebug
	case "INFO":
		l = slog.LevelInfo
	case "WARN":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	case "SILENT":
		return Silent()
	default:
		l = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: l}
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// Silent returns a slog.Logger that discards all output. Useful for
// tests or environments where logging must be disabled.
func Silent() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
