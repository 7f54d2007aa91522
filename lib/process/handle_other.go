// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix && !linux

package process

import "syscall"

func requestHandle(*syscall.SysProcAttr) *int {
	handle := -1
	return &handle
}
