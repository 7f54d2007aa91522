// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/hexlog/lib/clock"
)

// Child is the loop's view of the supervised process.
type Child interface {
	// Handle returns a descriptor that becomes readable when the
	// child exits, or -1.
	Handle() int

	// Exited reports whether the child has terminated. A stopped
	// child has not. Exited may reap the child, provided a later
	// wait still returns its status.
	Exited() (bool, error)

	// Signal delivers sig to the child's process group.
	Signal(sig unix.Signal) error
}

// LoopConfig wires a Loop.
type LoopConfig struct {
	// Input relays caller stdin to the child; Output relays the
	// child's stdout to the caller.
	Input  *Endpoint
	Output *Endpoint

	State *State
	Child Child

	// SignalFD is the read end of the notification socket.
	SignalFD int

	// Notifier receives flush timer expiries. Required when
	// FlushInterval is positive.
	Notifier *Notifier

	// FlushInterval arms a timer before every wait; when it expires
	// both endpoints log their carry. Zero disables the timer.
	FlushInterval time.Duration
	Clock         clock.Clock

	Logger *slog.Logger
}

// Poll slots.
const (
	slotInput = iota
	slotOutput
	slotSignal
	slotChildInput
	slotHandle
	slotCount
)

const readable = unix.POLLIN | unix.POLLERR | unix.POLLHUP | unix.POLLNVAL

// Loop is the single-goroutine multiplexer. It is not safe for
// concurrent use.
type Loop struct {
	config LoopConfig
	fds    [slotCount]unix.PollFd
	timer  *clock.Timer
}

// NewLoop validates config and returns a Loop ready to Run.
func NewLoop(config LoopConfig) (*Loop, error) {
	if config.Input == nil || config.Output == nil {
		return nil, errors.New("relay loop needs both endpoints")
	}
	if config.State == nil || config.Child == nil {
		return nil, errors.New("relay loop needs state and child")
	}
	if config.FlushInterval < 0 {
		return nil, fmt.Errorf("negative flush interval %v", config.FlushInterval)
	}
	if config.FlushInterval > 0 && config.Notifier == nil {
		return nil, errors.New("flush interval needs a notifier")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	loop := &Loop{config: config}
	loop.fds[slotInput] = pollSlot(config.Input.Source(), unix.POLLIN)
	loop.fds[slotOutput] = pollSlot(config.Output.Source(), unix.POLLIN)
	loop.fds[slotSignal] = pollSlot(config.SignalFD, unix.POLLIN)
	// No requested events: poll still reports POLLHUP once the child
	// has closed its stdin.
	loop.fds[slotChildInput] = pollSlot(config.Input.Sink(), 0)
	loop.fds[slotHandle] = pollSlot(config.Child.Handle(), unix.POLLIN)
	return loop, nil
}

func pollSlot(fd int, events int16) unix.PollFd {
	return unix.PollFd{Fd: int32(fd), Events: events}
}

// Run relays until the child exits or an unrecoverable error occurs.
// It returns nil when the child terminated. The endpoints' carry is not
// flushed; the caller does that once Run returns, success or not.
func (l *Loop) Run() error {
	defer l.stopTimer()
	logger := l.config.Logger

	for {
		l.armTimer()
		if _, err := unix.Poll(l.fds[:], -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}

		if l.fds[slotChildInput].Revents&unix.POLLHUP != 0 {
			logger.Debug("child closed its input", "label", l.config.Input.Label())
			if err := l.shutdown(slotInput, l.config.Input); err != nil {
				return err
			}
			continue
		}

		if l.fds[slotInput].Revents&readable != 0 {
			if err := l.pump(slotInput, l.config.Input); err != nil {
				return err
			}
		}
		if l.fds[slotOutput].Revents&readable != 0 {
			if err := l.pump(slotOutput, l.config.Output); err != nil {
				return err
			}
		}

		if l.fds[slotSignal].Revents&readable != 0 {
			done, err := l.control()
			if err != nil || done {
				return err
			}
		}

		if l.fds[slotHandle].Revents&readable != 0 {
			logger.Debug("process handle reported exit")
			return l.finish()
		}
	}
}

// pump relays one read and shuts the endpoint down at end-of-stream.
func (l *Loop) pump(slot int, endpoint *Endpoint) error {
	result, err := endpoint.Pump(l.config.State.Current())
	if err != nil {
		return err
	}
	if result == EndOfStream {
		l.config.Logger.Debug("end of stream", "label", endpoint.Label())
		return l.shutdown(slot, endpoint)
	}
	return nil
}

// shutdown closes both of an endpoint's descriptors and stops polling
// them.
func (l *Loop) shutdown(slot int, endpoint *Endpoint) error {
	l.fds[slot].Fd = -1
	if slot == slotInput {
		l.fds[slotChildInput].Fd = -1
	}
	return endpoint.Close()
}

// control reads one signal record and applies it. done is true when the
// loop should end successfully.
func (l *Loop) control() (done bool, err error) {
	var record [signalWireSize]byte
	n, err := readRetry(l.config.SignalFD, record[:])
	if err != nil {
		return false, fmt.Errorf("read signal: %w", err)
	}
	if n != signalWireSize {
		return false, fmt.Errorf("read signal: short record of %d bytes", n)
	}
	sig := decodeSignal(record[:])

	outcome := l.config.State.Apply(sig)
	l.config.Logger.Debug("control signal",
		"signal", sig.String(),
		"outcome", outcome.String(),
		"mask", l.config.State.Current().String(),
	)

	switch outcome {
	case FlushRequested:
		l.config.Input.Flush()
		l.config.Output.Flush()
	case ChildTerminated:
		exited, err := l.config.Child.Exited()
		if err != nil {
			return false, err
		}
		if exited {
			return true, l.finish()
		}
	case Forward:
		if err := l.config.Child.Signal(sig); err != nil {
			l.config.Logger.Warn("forwarding signal failed", "signal", sig.String(), "error", err)
		}
	}
	return false, nil
}

// finish relays whatever the child wrote before it exited.
func (l *Loop) finish() error {
	return l.config.Output.Drain(l.config.State.Current())
}

func (l *Loop) armTimer() {
	interval := l.config.FlushInterval
	if interval <= 0 {
		return
	}
	if l.timer == nil {
		notifier := l.config.Notifier
		l.timer = l.config.Clock.AfterFunc(interval, func() { notifier.Raise(SignalFlush) })
		return
	}
	l.timer.Reset(interval)
}

func (l *Loop) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
	}
}
