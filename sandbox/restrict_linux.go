// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Default returns the rlimit restrictor: core dumps are disabled at
// Init, and Apply sets no_new_privs and caps RLIMIT_NOFILE just above
// the highest descriptor already open. The child receives SIGKILL if
// the supervisor exits.
func Default() Restrictor { return rlimit{} }

type rlimit struct{}

func (rlimit) Name() string { return "rlimit" }

func (rlimit) Init() error {
	if err := unix.Setrlimit(unix.RLIMIT_CORE, &unix.Rlimit{}); err != nil {
		return fmt.Errorf("setrlimit RLIMIT_CORE: %w", err)
	}
	return nil
}

func (rlimit) PrepareChild(attr *syscall.SysProcAttr) {
	attr.Pdeathsig = syscall.SIGKILL
}

func (rlimit) Apply() error {
	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("prctl PR_SET_NO_NEW_PRIVS: %w", err)
	}
	// The runtime opens its poller descriptors when the first timer
	// is added; that must happen before new descriptors are refused.
	time.AfterFunc(time.Hour, func() {}).Stop()

	// poll(2) fails with EINVAL when nfds exceeds RLIMIT_NOFILE, so the
	// limit never drops below MinimumDescriptors. Without /proc the
	// limit is left alone.
	highest, err := highestDescriptor()
	if err != nil {
		return nil
	}
	var current unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &current); err != nil {
		return fmt.Errorf("getrlimit RLIMIT_NOFILE: %w", err)
	}
	limit := descriptorLimit(highest, current.Max)
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &unix.Rlimit{Cur: limit, Max: limit}); err != nil {
		return fmt.Errorf("setrlimit RLIMIT_NOFILE: %w", err)
	}
	return nil
}

// MinimumDescriptors is the lowest RLIMIT_NOFILE Apply sets. It covers
// the relay loop's poll set with room to spare.
const MinimumDescriptors = 16

// descriptorLimit returns highest+1, raised to MinimumDescriptors and
// capped at the hard limit.
func descriptorLimit(highest int, hard uint64) uint64 {
	limit := uint64(max(highest+1, MinimumDescriptors))
	if hard != unix.RLIM_INFINITY && limit > hard {
		limit = hard
	}
	return limit
}

// highestDescriptor returns the highest descriptor open in this
// process. The directory descriptor used for the listing is counted
// too, which only errs upward.
func highestDescriptor() (int, error) {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return 0, err
	}
	highest := -1
	for _, entry := range entries {
		fd, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		highest = max(highest, fd)
	}
	return highest, nil
}
