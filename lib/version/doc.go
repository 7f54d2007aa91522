// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for hexlog.
//
// Two package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//
// for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/hexlog/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// [Version] is set manually for releases. [Banner] renders the
// --version line, which also names the process restriction in use.
package version
