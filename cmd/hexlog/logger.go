// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// newLogger creates the diagnostic logger. When the output is a
// terminal it uses slog.TextHandler for human-readable output;
// otherwise slog.JSONHandler, so diagnostics stay machine-parseable
// next to a hex dump that is being captured.
func newLogger(output *os.File, level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(output.Fd())) {
		handler = slog.NewTextHandler(output, options)
	} else {
		handler = slog.NewJSONHandler(output, options)
	}
	return slog.New(handler).With("component", "hexlog")
}
