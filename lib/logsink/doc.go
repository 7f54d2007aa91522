// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logsink wraps hexlog's log descriptors with optional
// streaming compression.
//
// A long capture in raw mode is as large as the stream itself, and a
// hex dump is roughly four times larger. Compressing the sink keeps
// captures of busy streams manageable. Two algorithms are available:
//
//   - [LZ4] -- LZ4 frame format, fast, modest ratio
//   - [Zstd] -- zstd at the default level, better ratio for hex text
//
// Every Write is flushed as its own block, so a reader decompressing
// a live log sees everything up to the most recent dump. Close ends
// the frame but leaves the underlying descriptor open.
package logsink
