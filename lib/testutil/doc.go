// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for hexlog packages.
//
// [RequireReceive] and [RequireClosed] wrap the timeout safety valve
// (select with a time.After fallback) so that a hung relay fails the
// test instead of the whole test binary.
//
// [Pipe] and [Socketpair] return raw close-on-exec descriptors for
// wiring relay endpoints. Descriptors handed to an endpoint belong to
// it; wrap only the test's own ends with [File], which closes them at
// cleanup. Never register cleanup for a descriptor number something
// else may already have closed: the number can be reused by a parallel
// test.
//
// [SyncBuffer] is a log sink that the relay goroutine writes while the
// test goroutine waits for and reads its contents.
//
// All helpers call t.Fatalf on failure.
package testutil
