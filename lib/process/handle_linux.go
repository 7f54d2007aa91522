// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import "syscall"

// requestHandle asks the kernel for a pidfd as part of the clone.
func requestHandle(attr *syscall.SysProcAttr) *int {
	handle := -1
	attr.PidFD = &handle
	return &handle
}
