// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/hexlog/lib/clock"
	"github.com/bureau-foundation/hexlog/lib/hexdump"
	"github.com/bureau-foundation/hexlog/lib/process"
	"github.com/bureau-foundation/hexlog/relay"
	"github.com/bureau-foundation/hexlog/sandbox"
)

// ErrExec reports that the command could not be resolved or executed.
// Run returns it with process.ExitExec.
var ErrExec = errors.New("cannot execute command")

// Config describes one supervised run.
type Config struct {
	// Command is the program and its arguments. The program is
	// resolved through PATH.
	Command []string

	// Env is the child's environment. Nil means os.Environ().
	Env []string

	// Direction is the initial logging mask; Mode selects hex-dump or
	// raw logging.
	Direction relay.Direction
	Mode      hexdump.Mode

	InputLabel  string
	OutputLabel string

	// InputLog and OutputLog receive the mirrored bytes of each
	// direction. They may be the same writer.
	InputLog  io.Writer
	OutputLog io.Writer

	// Stdin and Stdout are the caller-side descriptors. Run takes
	// ownership of both.
	Stdin  int
	Stdout int

	// ChildStderr becomes the child's standard error. Nil passes the
	// supervisor's own descriptor 2.
	ChildStderr *os.File

	// FlushInterval logs both carries periodically. Zero disables it.
	FlushInterval time.Duration

	// Restrictor is applied once the child is running. Nil means
	// sandbox.Noop().
	Restrictor sandbox.Restrictor

	Clock  clock.Clock
	Logger *slog.Logger

	// Summary logs each endpoint's relay counters and digest at Info
	// level when the relay ends.
	Summary bool
}

func (c *Config) validate() error {
	if len(c.Command) == 0 {
		return errors.New("no command")
	}
	if c.InputLog == nil || c.OutputLog == nil {
		return errors.New("both log writers are required")
	}
	if c.Stdin < 0 || c.Stdout < 0 {
		return fmt.Errorf("invalid caller descriptors %d/%d", c.Stdin, c.Stdout)
	}
	if c.FlushInterval < 0 {
		return fmt.Errorf("negative flush interval %v", c.FlushInterval)
	}
	return nil
}

// execErrnos are the exec failures that mean the command itself is
// unusable, as opposed to a resource problem in the supervisor.
var execErrnos = []error{
	unix.ENOENT,
	unix.EACCES,
	unix.ENOEXEC,
	unix.ENOTDIR,
	unix.ELOOP,
	unix.ENAMETOOLONG,
	unix.E2BIG,
	unix.ETXTBSY,
	unix.EPERM,
}

func isExecFailure(err error) bool {
	for _, errno := range execErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// Run supervises config.Command and returns the exit code hexlog should
// exit with. A non-nil error describes a supervisor failure; the code
// is then process.ExitFailure, or process.ExitExec for ErrExec.
func Run(config Config) (int, error) {
	if err := config.validate(); err != nil {
		closeAll(config.Stdin, config.Stdout)
		return process.ExitFailure, err
	}
	if config.Restrictor == nil {
		config.Restrictor = sandbox.Noop()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Env == nil {
		config.Env = os.Environ()
	}
	logger := config.Logger

	s := &session{config: config, logger: logger}
	defer s.release()
	s.own(config.Stdin, config.Stdout)

	if err := config.Restrictor.Init(); err != nil {
		return process.ExitFailure, fmt.Errorf("restriction %s: %w", config.Restrictor.Name(), err)
	}

	childInputParent, childInputChild, err := s.socketpair("child input")
	if err != nil {
		return process.ExitFailure, err
	}
	childOutputParent, childOutputChild, err := s.socketpair("child output")
	if err != nil {
		return process.ExitFailure, err
	}
	signalRead, signalWrite, err := s.socketpair("signal notification")
	if err != nil {
		return process.ExitFailure, err
	}

	// The notifier is running before the child exists so an early
	// SIGCHLD is not lost.
	s.disown(signalWrite)
	s.notifier = relay.StartNotifier(signalWrite, relay.CaughtSignals()...)

	if err := s.spawn(childInputChild, childOutputChild); err != nil {
		if errors.Is(err, ErrExec) {
			return process.ExitExec, err
		}
		return process.ExitFailure, err
	}
	s.closeNow(childInputChild, childOutputChild)

	if err := config.Restrictor.Apply(); err != nil {
		return s.abort(fmt.Errorf("restriction %s: %w", config.Restrictor.Name(), err))
	}
	logger.Debug("restriction applied", "mode", config.Restrictor.Name())

	formatter := hexdump.New(config.Mode)
	input, err := relay.NewEndpoint(relay.EndpointConfig{
		Label:     config.InputLabel,
		Source:    config.Stdin,
		Sink:      childInputParent,
		Direction: relay.In,
		Log:       config.InputLog,
		Formatter: formatter,
	})
	if err != nil {
		return s.abort(err)
	}
	s.disown(config.Stdin, childInputParent)
	s.input = input

	output, err := relay.NewEndpoint(relay.EndpointConfig{
		Label:     config.OutputLabel,
		Source:    childOutputParent,
		Sink:      config.Stdout,
		Direction: relay.Out,
		Log:       config.OutputLog,
		Formatter: formatter,
	})
	if err != nil {
		return s.abort(err)
	}
	s.disown(childOutputParent, config.Stdout)
	s.output = output

	loop, err := relay.NewLoop(relay.LoopConfig{
		Input:         input,
		Output:        output,
		State:         relay.NewState(config.Direction),
		Child:         s.child,
		SignalFD:      signalRead,
		Notifier:      s.notifier,
		FlushInterval: config.FlushInterval,
		Clock:         config.Clock,
		Logger:        logger,
	})
	if err != nil {
		return s.abort(err)
	}

	loopErr := loop.Run()
	input.Flush()
	output.Flush()
	if loopErr != nil {
		return s.abort(fmt.Errorf("relay: %w", loopErr))
	}
	logger.Debug("relay ended", "pid", s.child.Pid)

	return s.reap()
}

// session tracks what Run has acquired so every exit path releases it.
type session struct {
	config   Config
	logger   *slog.Logger
	owned    map[int]struct{}
	notifier *relay.Notifier
	child    *process.Child
	input    *relay.Endpoint
	output   *relay.Endpoint
	reaped   bool
}

func (s *session) own(fds ...int) {
	if s.owned == nil {
		s.owned = make(map[int]struct{})
	}
	for _, fd := range fds {
		s.owned[fd] = struct{}{}
	}
}

// disown hands descriptors to another owner.
func (s *session) disown(fds ...int) {
	for _, fd := range fds {
		delete(s.owned, fd)
	}
}

func (s *session) closeNow(fds ...int) {
	s.disown(fds...)
	closeAll(fds...)
}

func (s *session) socketpair(purpose string) (parent, child int, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, -1, fmt.Errorf("socketpair for %s: %w", purpose, err)
	}
	s.own(fds[0], fds[1])
	return fds[0], fds[1], nil
}

// spawn starts the command with the child ends of the relay sockets as
// its stdin and stdout.
func (s *session) spawn(stdin, stdout int) error {
	command := s.config.Command
	path, err := exec.LookPath(command[0])
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrExec, command[0], err)
	}

	stderr := uintptr(2)
	if s.config.ChildStderr != nil {
		stderr = s.config.ChildStderr.Fd()
	}
	attr := &syscall.SysProcAttr{Setpgid: true}
	s.config.Restrictor.PrepareChild(attr)

	child, err := process.Start(path, command, s.config.Env,
		[]uintptr{uintptr(stdin), uintptr(stdout), stderr}, attr)
	if err != nil {
		if isExecFailure(err) {
			return fmt.Errorf("%w %q: %w", ErrExec, path, err)
		}
		return fmt.Errorf("spawn %q: %w", path, err)
	}
	s.child = child
	s.logger.Info("child spawned", "pid", child.Pid, "command", command, "handle", child.Handle() >= 0)
	return nil
}

// abort kills the child's process group, reaps it and reports err.
func (s *session) abort(err error) (int, error) {
	if s.child != nil && !s.reaped {
		if killErr := s.child.Signal(unix.SIGKILL); killErr != nil {
			s.logger.Warn("killing child failed", "pid", s.child.Pid, "error", killErr)
		}
		if _, waitErr := s.child.Wait(); waitErr != nil {
			s.logger.Warn("reaping child failed", "pid", s.child.Pid, "error", waitErr)
		}
		s.reaped = true
	}
	return process.ExitFailure, err
}

// reap waits for the child and maps its status to an exit code.
func (s *session) reap() (int, error) {
	status, err := s.child.Wait()
	s.reaped = true
	if err != nil {
		return process.ExitFailure, err
	}
	code := process.ExitCode(status)
	s.logger.Info("child exited", "pid", s.child.Pid, "code", code)
	if s.config.Summary {
		s.summarize()
	}
	return code, nil
}

func (s *session) summarize() {
	for _, endpoint := range []*relay.Endpoint{s.input, s.output} {
		summary := endpoint.Summary()
		s.logger.Info("relay summary",
			"label", summary.Label,
			"relayed", summary.Relayed,
			"logged", summary.Logged,
			"digest", summary.Digest,
		)
	}
}

// release closes everything still held. It runs on every return path.
func (s *session) release() {
	if s.notifier != nil {
		s.notifier.Stop()
	}
	for _, endpoint := range []*relay.Endpoint{s.input, s.output} {
		if endpoint == nil {
			continue
		}
		if err := endpoint.Close(); err != nil {
			s.logger.Debug("closing endpoint", "label", endpoint.Label(), "error", err)
		}
	}
	if s.child != nil {
		s.child.Close()
	}
	for fd := range s.owned {
		unix.Close(fd)
	}
	s.owned = nil
}

func closeAll(fds ...int) {
	for _, fd := range fds {
		unix.Close(fd)
	}
}
