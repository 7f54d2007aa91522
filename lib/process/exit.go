// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import "golang.org/x/sys/unix"

const (
	// ExitFailure is returned for supervisor failures: usage, setup,
	// relay I/O and reaping errors.
	ExitFailure = 111

	// ExitExec is returned when the target command cannot be executed.
	ExitExec = 126

	// signalBase is added to the signal number of a child killed by a
	// signal, following the shell convention.
	signalBase = 128
)

// ExitCode translates a raw wait status into the supervisor's exit code.
func ExitCode(status unix.WaitStatus) int {
	switch {
	case status.Exited():
		return status.ExitStatus()
	case status.Signaled():
		return signalBase + int(status.Signal())
	default:
		return ExitFailure
	}
}
