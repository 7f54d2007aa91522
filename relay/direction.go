// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/hexlog/lib/hexdump"
)

// Direction is a set of stream directions whose bytes are logged.
type Direction uint8

const (
	// In is the caller to child stream.
	In Direction = 1 << iota
	// Out is the child to caller stream.
	Out

	// None logs nothing.
	None Direction = 0
	// InOut logs both streams.
	InOut = In | Out
)

// RawPrefix on a direction token selects raw logging.
const RawPrefix = "raw"

var directionNames = map[string]Direction{
	"none":  None,
	"in":    In,
	"out":   Out,
	"inout": InOut,
}

// ParseDirection parses a direction token such as "inout" or "rawin"
// into the initial mask and the log formatting mode.
func ParseDirection(token string) (Direction, hexdump.Mode, error) {
	mode := hexdump.Formatted
	name := token
	if rest, ok := strings.CutPrefix(token, RawPrefix); ok {
		mode = hexdump.Raw
		name = rest
	}
	direction, ok := directionNames[name]
	if !ok {
		return None, mode, fmt.Errorf("unknown direction %q (want none, in, out or inout, optionally prefixed with %q)", token, RawPrefix)
	}
	return direction, mode, nil
}

// Has reports whether every bit of other is set in d.
func (d Direction) Has(other Direction) bool { return d&other == other }

// Toggle flips the bits of other in d.
func (d Direction) Toggle(other Direction) Direction { return d ^ other }

func (d Direction) String() string {
	switch d {
	case None:
		return "none"
	case In:
		return "in"
	case Out:
		return "out"
	case InOut:
		return "inout"
	default:
		return fmt.Sprintf("Direction(%#x)", uint8(d))
	}
}
