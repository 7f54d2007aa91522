// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor runs one command under hexlog: it wires the
// child's standard input and output through socket pairs, spawns the
// child as a process-group leader, restricts itself, relays until the
// child exits and translates the child's wait status into an exit code.
//
// Run owns the caller descriptors it is given. When the relay ends they
// are closed, so a caller that passes its own stdin and stdout must not
// use them afterwards.
package supervisor
