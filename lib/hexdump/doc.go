// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hexdump renders relayed byte ranges for the side log.
//
// A [Formatter] has one of two modes, fixed at construction:
//
//   - [Formatted] renders classic hex-dump lines. Each line covers 16
//     source bytes: two-digit uppercase hex values separated by spaces
//     with an extra space after the eighth, then the printable bytes
//     between pipes, then the caller's label:
//
//     68 65 6C 6C 6F 20 77 6F  72 6C 64 21              |hello world!| (0)
//
//     A short final line is blank-padded so its ASCII column lines up
//     with full lines.
//
//   - [Raw] copies the bytes verbatim.
//
// Rendering appends to a caller-supplied slice so one relay read costs
// one write to the log sink regardless of how many lines it produced.
//
// This package depends on no other hexlog packages.
package hexdump
