// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix && !linux

package sandbox

// Default returns the no-op restrictor: this platform has no supported
// restriction mechanism.
func Default() Restrictor { return Noop() }
