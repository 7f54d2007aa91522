// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Child is a spawned process supervised by hexlog.
type Child struct {
	// Pid is the child's process ID. The child leads its own process
	// group, so Pid is also the group ID.
	Pid int

	handle int

	// status holds the wait status once Exited has reaped the child.
	status unix.WaitStatus
	reaped bool
}

// Start forks and executes path with argv and env. files become the
// child's descriptors 0..len(files)-1. attr is extended with a request
// for a process handle where the OS supports one; the caller sets the
// remaining attributes (process group, parent-death signal).
func Start(path string, argv, env []string, files []uintptr, attr *syscall.SysProcAttr) (*Child, error) {
	if attr == nil {
		attr = &syscall.SysProcAttr{}
	}
	handle := requestHandle(attr)

	pid, err := syscall.ForkExec(path, argv, &syscall.ProcAttr{
		Env:   env,
		Files: files,
		Sys:   attr,
	})
	if err != nil {
		return nil, err
	}
	return &Child{Pid: pid, handle: *handle}, nil
}

// Handle returns the waitable process handle, or -1 if the OS does not
// provide one. The descriptor becomes readable when the child exits.
func (c *Child) Handle() int { return c.handle }

// Signal sends sig to the child's whole process group. A group that no
// longer exists is not an error.
func (c *Child) Signal(sig unix.Signal) error {
	err := unix.Kill(-c.Pid, sig)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	return fmt.Errorf("signal process group %d with %v: %w", c.Pid, sig, err)
}

// Exited reports whether the child has terminated. With a process
// handle it polls the handle and leaves the child unreaped. Without one
// it asks wait4 with WNOHANG; a terminated child is reaped there and
// its status kept for Wait. A stopped child is not terminated.
func (c *Child) Exited() (bool, error) {
	if c.reaped {
		return true, nil
	}
	if c.handle < 0 {
		return c.reap(unix.WNOHANG)
	}
	fds := []unix.PollFd{{Fd: int32(c.handle), Events: unix.POLLIN}}
	for {
		count, err := unix.Poll(fds, 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("poll process handle: %w", err)
		}
		return count > 0 && fds[0].Revents&(unix.POLLIN|unix.POLLHUP) != 0, nil
	}
}

// Wait blocks until the child exits and returns its raw wait status.
func (c *Child) Wait() (unix.WaitStatus, error) {
	if _, err := c.reap(0); err != nil {
		return 0, err
	}
	return c.status, nil
}

// reap calls wait4 for the child with options, retrying EINTR, and
// records the status if the child was reaped.
func (c *Child) reap(options int) (bool, error) {
	if c.reaped {
		return true, nil
	}
	var status unix.WaitStatus
	for {
		pid, err := unix.Wait4(c.Pid, &status, options, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("wait for pid %d: %w", c.Pid, err)
		}
		if pid != c.Pid {
			return false, nil
		}
		c.status = status
		c.reaped = true
		return true, nil
	}
}

// Close releases the process handle. It does not signal or reap the
// child.
func (c *Child) Close() error {
	if c.handle < 0 {
		return nil
	}
	err := unix.Close(c.handle)
	c.handle = -1
	return err
}
