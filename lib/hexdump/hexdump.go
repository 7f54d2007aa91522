// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hexdump

import (
	"fmt"
	"io"
)

// LineWidth is the number of source bytes covered by one formatted line.
const LineWidth = 16

// Mode selects how a Formatter renders bytes.
type Mode int

const (
	// Formatted renders hex and ASCII columns.
	Formatted Mode = iota
	// Raw copies bytes unchanged.
	Raw
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case Formatted:
		return "formatted"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

const hexDigits = "0123456789ABCDEF"

// Formatter renders byte ranges in one Mode. The zero value is a
// Formatted formatter.
type Formatter struct {
	mode Mode
}

// New returns a Formatter for the given mode.
func New(mode Mode) Formatter {
	return Formatter{mode: mode}
}

// Mode reports the formatter's mode.
func (f Formatter) Mode() Mode { return f.mode }

// Append renders data and appends the result to dst. The label is
// ignored in Raw mode.
func (f Formatter) Append(dst []byte, label string, data []byte) []byte {
	if f.mode == Raw {
		return append(dst, data...)
	}
	for offset := 0; offset < len(data); offset += LineWidth {
		end := min(offset+LineWidth, len(data))
		dst = appendLine(dst, label, data[offset:end])
	}
	return dst
}

// Write renders data and writes it to w in a single call. Empty data
// writes nothing.
func (f Formatter) Write(w io.Writer, label string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(f.Append(make([]byte, 0, f.renderedSize(label, len(data))), label, data))
	return err
}

// renderedSize returns the exact output size for size source bytes.
func (f Formatter) renderedSize(label string, size int) int {
	if f.mode == Raw {
		return size
	}
	lines := (size + LineWidth - 1) / LineWidth
	// 48 hex columns, 2 separators, 2 pipes, newline.
	return lines*(3*LineWidth+2+2+len(label)+1) + size
}

// appendLine renders up to LineWidth bytes as one line.
func appendLine(dst []byte, label string, line []byte) []byte {
	for i := range LineWidth {
		if i < len(line) {
			b := line[i]
			dst = append(dst, hexDigits[b>>4], hexDigits[b&0x0f], ' ')
		} else {
			dst = append(dst, ' ', ' ', ' ')
		}
		if i == LineWidth/2-1 {
			dst = append(dst, ' ')
		}
	}
	dst = append(dst, ' ', '|')
	for _, b := range line {
		if b >= ' ' && b <= '~' {
			dst = append(dst, b)
		} else {
			dst = append(dst, '.')
		}
	}
	dst = append(dst, '|')
	dst = append(dst, label...)
	return append(dst, '\n')
}
