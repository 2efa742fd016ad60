// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging constructs the structured logger shared by the
// analysis environment and the option processor.
package logging

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// New creates a structured logger for process-wide diagnostics. When
// stderr is a terminal, uses slog.TextHandler for human-readable
// output. When stderr is piped or redirected (CI, scripts, tooling),
// uses slog.JSONHandler for machine-parseable output.
//
// Callers scope the logger with call-site context via With():
//
//	logger := logging.New().With("invocation_id", invocationID)
func New() *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
