// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"encoding/binary"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// Control signals interpreted by State.Apply.
const (
	SignalReset     = unix.SIGHUP
	SignalToggleIn  = unix.SIGUSR1
	SignalToggleOut = unix.SIGUSR2
	SignalFlush     = unix.SIGALRM
	SignalChildExit = unix.SIGCHLD
)

// ForwardedSignals are caught and passed on to the child's process
// group.
var ForwardedSignals = []os.Signal{
	unix.SIGINT,
	unix.SIGTERM,
	unix.SIGQUIT,
	unix.SIGWINCH,
	unix.SIGCONT,
	unix.SIGTSTP,
}

// CaughtSignals returns every signal the supervisor routes through its
// notifier.
func CaughtSignals() []os.Signal {
	caught := []os.Signal{
		SignalReset,
		SignalToggleIn,
		SignalToggleOut,
		SignalFlush,
		SignalChildExit,
	}
	return append(caught, ForwardedSignals...)
}

// Outcome is the loop's reaction to one control signal.
type Outcome int

const (
	// StateChanged means the mask may have changed; keep looping.
	StateChanged Outcome = iota
	// FlushRequested means both endpoints should log their carry.
	FlushRequested
	// ChildTerminated means the child exited; the loop should end.
	ChildTerminated
	// Forward means the signal belongs to the child.
	Forward
)

func (o Outcome) String() string {
	switch o {
	case StateChanged:
		return "state-changed"
	case FlushRequested:
		return "flush-requested"
	case ChildTerminated:
		return "child-terminated"
	case Forward:
		return "forward"
	default:
		return "unknown"
	}
}

// State is the logging state owned by the loop. Only Apply mutates it.
type State struct {
	initial Direction
	current Direction
}

// NewState returns a State whose current mask equals initial.
func NewState(initial Direction) *State {
	return &State{initial: initial, current: initial}
}

// Initial returns the mask given at startup.
func (s *State) Initial() Direction { return s.initial }

// Current returns the active mask.
func (s *State) Current() Direction { return s.current }

// Apply performs the state transition for one received signal.
func (s *State) Apply(sig unix.Signal) Outcome {
	switch sig {
	case SignalReset:
		s.current = s.initial
	case SignalToggleIn:
		s.current = s.current.Toggle(In)
	case SignalToggleOut:
		s.current = s.current.Toggle(Out)
	case SignalFlush:
		return FlushRequested
	case SignalChildExit:
		return ChildTerminated
	default:
		return Forward
	}
	return StateChanged
}

// signalWireSize is the size of one signal record on the notification
// socket.
const signalWireSize = 4

func encodeSignal(sig unix.Signal) [signalWireSize]byte {
	var record [signalWireSize]byte
	binary.NativeEndian.PutUint32(record[:], uint32(sig))
	return record
}

func decodeSignal(record []byte) unix.Signal {
	return unix.Signal(binary.NativeEndian.Uint32(record))
}

// Notifier turns asynchronous signals into records on a descriptor the
// loop polls. It owns the write end of the notification socket and is
// the only writer: signals from the OS and from Raise funnel through
// one goroutine.
type Notifier struct {
	fd       int
	signals  chan os.Signal
	done     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
}

// StartNotifier begins relaying the given OS signals to fd. With no
// signals, only Raise produces records.
func StartNotifier(fd int, signals ...os.Signal) *Notifier {
	notifier := &Notifier{
		fd:       fd,
		signals:  make(chan os.Signal, 32),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	if len(signals) > 0 {
		signal.Notify(notifier.signals, signals...)
	}
	go notifier.run()
	return notifier
}

// Raise queues sig as if it had been delivered by the OS. It never
// blocks; if the queue is full the signal is dropped.
func (n *Notifier) Raise(sig unix.Signal) {
	select {
	case n.signals <- sig:
	default:
	}
}

// Stop stops signal delivery, waits for the relay goroutine to exit
// and closes the descriptor if it is still open.
func (n *Notifier) Stop() {
	n.stopOnce.Do(func() {
		signal.Stop(n.signals)
		close(n.done)
		<-n.finished
	})
}

func (n *Notifier) run() {
	defer close(n.finished)
	for {
		select {
		case <-n.done:
			unix.Close(n.fd)
			return
		case sig := <-n.signals:
			sysSig, ok := sig.(unix.Signal)
			if !ok {
				continue
			}
			record := encodeSignal(sysSig)
			if _, err := unix.Write(n.fd, record[:]); err != nil {
				// Give up silently: the loop will notice the closed
				// socket on its next read.
				unix.Close(n.fd)
				<-n.done
				return
			}
		}
	}
}
