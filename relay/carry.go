// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"

	"github.com/bureau-foundation/hexlog/lib/hexdump"
)

const (
	// ScratchSize is the largest single read from a relay source.
	ScratchSize = 4096

	// CarryCapacity bounds the carry buffer. It must hold one full
	// read plus the largest possible leftover of LineWidth-1 bytes.
	CarryCapacity = 8192
)

// ErrCarryOverflow reports an append that does not fit the carry
// buffer. It cannot happen for reads of at most ScratchSize bytes.
var ErrCarryOverflow = errors.New("carry buffer overflow")

// carryBuffer accumulates bytes that have been relayed but not yet
// logged. Outside append, its length is always below LineWidth.
type carryBuffer struct {
	data   [CarryCapacity]byte
	length int
}

// append adds p and passes the largest LineWidth-aligned prefix of the
// accumulated bytes to emit. The remainder stays buffered.
func (c *carryBuffer) append(p []byte, emit func([]byte)) error {
	total := c.length + len(p)
	if total > len(c.data) {
		return ErrCarryOverflow
	}
	copy(c.data[c.length:total], p)
	if total < hexdump.LineWidth {
		c.length = total
		return nil
	}
	aligned := total - total%hexdump.LineWidth
	emit(c.data[:aligned])
	c.length = copy(c.data[:], c.data[aligned:total])
	return nil
}

// flush passes any buffered bytes to emit and empties the buffer.
func (c *carryBuffer) flush(emit func([]byte)) {
	if c.length > 0 {
		emit(c.data[:c.length])
	}
	c.length = 0
}

// discard drops buffered bytes without emitting them.
func (c *carryBuffer) discard() { c.length = 0 }

// Len returns the number of buffered bytes.
func (c *carryBuffer) Len() int { return c.length }

// Compile-time check that the capacity covers a full read.
var _ [CarryCapacity - ScratchSize - (hexdump.LineWidth - 1)]struct{}
