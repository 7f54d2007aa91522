// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"syscall"
)

// Restrictor reduces what the supervisor process can do once the child
// is running. The supervisor calls Init before any setup, PrepareChild
// while building the spawn attributes, and Apply exactly once after the
// child is spawned and every relay descriptor is in place.
type Restrictor interface {
	// Name identifies the restriction mode in usage and version output.
	Name() string

	// Init runs before any descriptors are created.
	Init() error

	// PrepareChild arranges, best effort, for the child to be killed
	// if the supervisor dies first.
	PrepareChild(attr *syscall.SysProcAttr)

	// Apply drops the supervisor's remaining privileges. After Apply
	// the supervisor can still read, write, poll and close the
	// descriptors it holds, signal the child and reap it.
	Apply() error
}

// Mode names accepted by Select.
const (
	ModeDefault = "default"
	ModeNone    = "none"
)

// Select returns the restrictor for a configured mode name. The empty
// string selects the build default.
func Select(mode string) (Restrictor, error) {
	switch mode {
	case "", ModeDefault:
		return Default(), nil
	case ModeNone:
		return Noop(), nil
	default:
		return nil, fmt.Errorf("unknown restriction mode %q (want %q or %q)", mode, ModeDefault, ModeNone)
	}
}

// Noop returns a Restrictor that leaves the process unchanged.
func Noop() Restrictor { return noop{} }

type noop struct{}

func (noop) Name() string { return "null" }
func (noop) Init() error { return nil }
func (noop) PrepareChild(*syscall.SysProcAttr) {}
func (noop) Apply() error { return nil }
