// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"io"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// Pipe returns the read and write ends of a new close-on-exec pipe.
// The caller owns both.
func Pipe(t testing.TB) (read, write int) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	return fds[0], fds[1]
}

// Socketpair returns a connected close-on-exec stream socket pair. The
// caller owns both.
func Socketpair(t testing.TB) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	return fds[0], fds[1]
}

// File wraps fd in an *os.File that is closed when the test ends.
func File(t testing.TB, fd int, name string) *os.File {
	t.Helper()
	file := os.NewFile(uintptr(fd), name)
	t.Cleanup(func() { file.Close() })
	return file
}

// ReadExactly reads exactly n bytes from r or fails the test.
func ReadExactly(t testing.TB, r io.Reader, n int) []byte {
	t.Helper()
	buffer := make([]byte, n)
	if _, err := io.ReadFull(r, buffer); err != nil {
		t.Fatalf("reading %d bytes: %v", n, err)
	}
	return buffer
}
