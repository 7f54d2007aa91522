// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/hexlog/lib/hexdump"
)

// Default endpoint labels, appended to every formatted log line.
const (
	DefaultInputLabel  = " (0)"
	DefaultOutputLabel = " (1)"
)

// PumpResult is the outcome of a successful Pump.
type PumpResult int

const (
	// Processed means bytes were relayed and the source stays open.
	Processed PumpResult = iota
	// EndOfStream means the source reached EOF.
	EndOfStream
)

// digestKey separates relay digests from any other BLAKE3 use. The
// bytes are the ASCII domain name, zero-padded to 32.
var digestKey = [32]byte{
	'h', 'e', 'x', 'l', 'o', 'g', '.', 'r', 'e', 'l', 'a', 'y',
}

// EndpointConfig describes one relay direction.
type EndpointConfig struct {
	// Label is appended to each formatted log line.
	Label string

	// Source is read from; Sink receives every byte read. The
	// endpoint owns both descriptors and closes them on Close.
	Source int
	Sink   int

	// Direction is the mask bit that gates logging for this endpoint.
	Direction Direction

	// Log receives rendered output. Write errors are ignored.
	Log io.Writer

	// Formatter renders logged bytes.
	Formatter hexdump.Formatter
}

// Endpoint relays one stream and mirrors it to a log.
type Endpoint struct {
	label     string
	source    int
	sink      int
	direction Direction
	log       io.Writer
	formatter hexdump.Formatter

	carry   carryBuffer
	scratch [ScratchSize]byte
	closed  bool

	digest  *blake3.Hasher
	relayed uint64
	logged  uint64
}

// Summary describes what an endpoint relayed over its lifetime.
type Summary struct {
	Label   string
	Relayed uint64
	Logged  uint64
	// Digest is the hex BLAKE3 keyed hash of every relayed byte.
	Digest string
}

// NewEndpoint creates an endpoint. The endpoint takes ownership of the
// source and sink descriptors.
func NewEndpoint(config EndpointConfig) (*Endpoint, error) {
	if config.Direction != In && config.Direction != Out {
		return nil, fmt.Errorf("endpoint %q: direction must be in or out, got %v", config.Label, config.Direction)
	}
	if config.Log == nil {
		config.Log = io.Discard
	}
	digest, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		return nil, fmt.Errorf("endpoint %q: digest: %w", config.Label, err)
	}
	return &Endpoint{
		label:     config.Label,
		source:    config.Source,
		sink:      config.Sink,
		direction: config.Direction,
		log:       config.Log,
		formatter: config.Formatter,
		digest:    digest,
	}, nil
}

// Label returns the endpoint's log label.
func (e *Endpoint) Label() string { return e.label }

// Source returns the source descriptor, or -1 once closed.
func (e *Endpoint) Source() int {
	if e.closed {
		return -1
	}
	return e.source
}

// Sink returns the sink descriptor, or -1 once closed.
func (e *Endpoint) Sink() int {
	if e.closed {
		return -1
	}
	return e.sink
}

// Closed reports whether Close has been called.
func (e *Endpoint) Closed() bool { return e.closed }

// Pending returns the number of carried bytes not yet logged.
func (e *Endpoint) Pending() int { return e.carry.Len() }

// Pump reads once from the source, writes everything read to the sink
// and then mirrors it to the log if mask enables this endpoint. With
// logging disabled the carry is discarded: bytes straddling a toggle
// are never logged.
func (e *Endpoint) Pump(mask Direction) (PumpResult, error) {
	if e.closed {
		return EndOfStream, nil
	}
	n, err := readRetry(e.source, e.scratch[:])
	if err != nil {
		return Processed, fmt.Errorf("read %s: %w", e.describe(), err)
	}
	if n == 0 {
		return EndOfStream, nil
	}
	data := e.scratch[:n]

	if err := writeAll(e.sink, data); err != nil {
		return Processed, fmt.Errorf("write %s: %w", e.describe(), err)
	}
	e.relayed += uint64(n)
	e.digest.Write(data)

	if !mask.Has(e.direction) {
		e.carry.discard()
		return Processed, nil
	}
	if err := e.carry.append(data, e.dump); err != nil {
		return Processed, fmt.Errorf("%s: %w", e.describe(), err)
	}
	return Processed, nil
}

// drainLimit bounds how much Drain relays. A descendant that inherited
// the child's stdout can keep writing after the child exits; the rest
// of its output is not waited for.
const drainLimit = 64 * ScratchSize

// Drain pumps until the source would block, reaches EOF, or drainLimit
// bytes have been relayed. The source is switched to non-blocking mode
// first, so Drain never waits for a writer that is still alive.
func (e *Endpoint) Drain(mask Direction) error {
	if e.closed {
		return nil
	}
	if err := unix.SetNonblock(e.source, true); err != nil {
		return fmt.Errorf("set %s non-blocking: %w", e.describe(), err)
	}
	start := e.relayed
	for e.relayed-start < drainLimit {
		result, err := e.Pump(mask)
		if errors.Is(err, unix.EAGAIN) {
			return nil
		}
		if err != nil {
			return err
		}
		if result == EndOfStream {
			return nil
		}
	}
	return nil
}

// Flush logs any carried bytes as a final, possibly short, line.
func (e *Endpoint) Flush() {
	e.carry.flush(e.dump)
}

// Close closes the sink and the source. It is safe to call more than
// once; only the first call closes anything.
func (e *Endpoint) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	sinkErr := unix.Close(e.sink)
	sourceErr := unix.Close(e.source)
	if err := errors.Join(sinkErr, sourceErr); err != nil {
		return fmt.Errorf("close %s: %w", e.describe(), err)
	}
	return nil
}

// Summary returns the endpoint's relay counters and digest.
func (e *Endpoint) Summary() Summary {
	return Summary{
		Label:   e.label,
		Relayed: e.relayed,
		Logged:  e.logged,
		Digest:  hex.EncodeToString(e.digest.Sum(nil)),
	}
}

// dump renders data to the log, best effort.
func (e *Endpoint) dump(data []byte) {
	e.logged += uint64(len(data))
	_ = e.formatter.Write(e.log, e.label, data)
}

func (e *Endpoint) describe() string {
	return fmt.Sprintf("endpoint %s (%v, fd %d->%d)", e.label, e.direction, e.source, e.sink)
}
