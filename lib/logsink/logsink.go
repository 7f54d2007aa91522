// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the sink encoding.
type Compression uint8

const (
	// None writes log output unchanged.
	None Compression = iota

	// LZ4 writes an LZ4 frame.
	LZ4

	// Zstd writes a zstd frame at the default level.
	Zstd
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as accepted in
// configuration.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return None, fmt.Errorf("unknown compression %q (want none, lz4 or zstd)", name)
	}
}

// encoder is the part of both compressors' writers that Writer uses.
type encoder interface {
	io.WriteCloser
	Flush() error
}

// Writer is a compressing log sink.
type Writer struct {
	compression Compression
	destination io.Writer
	encoder     encoder
	closed      bool
}

// New wraps destination. With None, writes pass straight through.
func New(destination io.Writer, compression Compression) (*Writer, error) {
	writer := &Writer{compression: compression, destination: destination}
	switch compression {
	case None:
	case LZ4:
		writer.encoder = lz4.NewWriter(destination)
	case Zstd:
		encoder, err := zstd.NewWriter(destination,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		writer.encoder = encoder
	default:
		return nil, fmt.Errorf("unsupported compression %v", compression)
	}
	return writer, nil
}

// Compression returns the sink's encoding.
func (w *Writer) Compression() Compression { return w.compression }

// Write compresses p and flushes it as a complete block.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("write to closed log sink")
	}
	if w.encoder == nil {
		return w.destination.Write(p)
	}
	n, err := w.encoder.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.encoder.Flush(); err != nil {
		return n, fmt.Errorf("%v flush: %w", w.compression, err)
	}
	return n, nil
}

// Close writes the end of the compressed frame. The destination is
// not closed. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.encoder == nil {
		return nil
	}
	if err := w.encoder.Close(); err != nil {
		return fmt.Errorf("%v close: %w", w.compression, err)
	}
	return nil
}
