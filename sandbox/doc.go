// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox reduces what the hexlog supervisor can do once its
// child is running.
//
// After setup the supervisor only reads, writes, polls and closes
// descriptors it already holds, signals its child and reaps it. A
// [Restrictor] takes away the rest. The supervisor calls Init before
// creating any descriptors, PrepareChild while building the child's
// spawn attributes, and Apply once every relay descriptor exists.
//
// [Default] picks the restrictor for the build platform. On Linux it
// is "rlimit": core dumps are disabled, no_new_privs is set, the open
// file limit drops to just above the highest descriptor in use (never
// below [MinimumDescriptors], since poll counts against it), and the
// child is sent SIGKILL if the supervisor dies. Elsewhere it is the
// no-op restrictor, named "null". [Select] maps the configured mode
// ("default" or "none") to a restrictor; "none" is used by tests that
// run the supervisor inside the test process.
//
// The restriction applies to the supervisor only. The child runs with
// whatever privileges it inherited.
package sandbox
