// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/hexlog/lib/config"
	"github.com/bureau-foundation/hexlog/lib/hexdump"
	"github.com/bureau-foundation/hexlog/lib/logsink"
	"github.com/bureau-foundation/hexlog/lib/process"
	"github.com/bureau-foundation/hexlog/lib/version"
	"github.com/bureau-foundation/hexlog/relay"
	"github.com/bureau-foundation/hexlog/sandbox"
	"github.com/bureau-foundation/hexlog/supervisor"
)

const programName = "hexlog"

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code. Arguments are parsed first so
// --version and -h answer even when the configuration is invalid.
func run(args []string) int {
	invocation, err := parseArgs(args)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "%v\n", err)
		printUsage(os.Stderr, restrictionName(os.LookupEnv))
		return process.ExitFailure
	case err != nil:
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return process.ExitFailure
	case invocation.version:
		fmt.Println(version.Banner(programName, restrictionName(os.LookupEnv)))
		return 0
	case invocation.help:
		printUsage(os.Stdout, restrictionName(os.LookupEnv))
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return process.ExitFailure
	}
	restrictor, err := sandbox.Select(cfg.Restrict)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return process.ExitFailure
	}

	logger := newLogger(os.Stderr, cfg.Level())

	compression, err := logsink.ParseCompression(cfg.Compression)
	if err != nil {
		logger.Error("invalid log compression", "error", err)
		return process.ExitFailure
	}
	logs, err := openLogs(cfg.LogFD.Stdin, cfg.LogFD.Stdout, compression)
	if err != nil {
		logger.Error("opening log descriptors failed", "error", err)
		return process.ExitFailure
	}

	code, err := supervisor.Run(supervisor.Config{
		Command:       invocation.command,
		Direction:     invocation.direction,
		Mode:          invocation.mode,
		InputLabel:    cfg.Labels.Stdin,
		OutputLabel:   cfg.Labels.Stdout,
		InputLog:      logs.input,
		OutputLog:     logs.output,
		Stdin:         unix.Stdin,
		Stdout:        unix.Stdout,
		FlushInterval: cfg.FlushInterval(),
		Restrictor:    restrictor,
		Logger:        logger,
		Summary:       cfg.Summary,
	})
	if err != nil {
		logger.Error("hexlog failed", "command", invocation.command, "error", err)
	}
	if err := logs.Close(); err != nil {
		logger.Warn("closing log sinks", "error", err)
	}
	return code
}

// invocation is the parsed command line.
type invocation struct {
	version   bool
	help      bool
	direction relay.Direction
	mode      hexdump.Mode
	command   []string
}

// parseArgs parses hexlog's own flags and positional arguments. Parsing
// stops at the first positional argument, so the command's flags are
// passed through untouched.
func parseArgs(args []string) (invocation, error) {
	var result invocation

	flagSet := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&result.version, "version", false, "print version and exit")
	flagSet.BoolVarP(&result.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		return invocation{}, fmt.Errorf("%w: %w", errUsage, err)
	}
	if result.version || result.help {
		return result, nil
	}

	positional := flagSet.Args()
	if len(positional) < 2 {
		return invocation{}, fmt.Errorf("%w: a direction and a command are required", errUsage)
	}
	direction, mode, err := relay.ParseDirection(positional[0])
	if err != nil {
		return invocation{}, fmt.Errorf("%w: %w", errUsage, err)
	}
	result.direction = direction
	result.mode = mode
	result.command = positional[1:]
	return result, nil
}

// restrictionName names the restrictor the configuration selects. An
// invalid configuration falls back to the build default, so version and
// usage output never fail.
func restrictionName(lookup func(string) (string, bool)) string {
	cfg, err := config.LoadEnv(lookup)
	if err != nil {
		return sandbox.Default().Name()
	}
	restrictor, err := sandbox.Select(cfg.Restrict)
	if err != nil {
		return sandbox.Default().Name()
	}
	return restrictor.Name()
}

func printUsage(w io.Writer, restriction string) {
	fmt.Fprintf(w, `%s
usage: %s [--version] <none|in|out|inout> <command> [<arg> ...]

Prefix the direction with "raw" (rawin, rawout, rawinout, rawnone) to
log bytes verbatim instead of as a hex dump.
`, version.Banner(programName, restriction), programName)
}

// logs holds the sinks for the two directions. A descriptor named for
// both directions gets a single shared sink, so its compressed stream
// stays one frame.
type logs struct {
	input  *logsink.Writer
	output *logsink.Writer
}

func openLogs(stdinFD, stdoutFD int, compression logsink.Compression) (*logs, error) {
	input, err := openSink(stdinFD, compression)
	if err != nil {
		return nil, err
	}
	if stdoutFD == stdinFD {
		return &logs{input: input, output: input}, nil
	}
	output, err := openSink(stdoutFD, compression)
	if err != nil {
		return nil, err
	}
	return &logs{input: input, output: output}, nil
}

func openSink(fd int, compression logsink.Compression) (*logsink.Writer, error) {
	file, err := logFile(fd)
	if err != nil {
		return nil, err
	}
	return logsink.New(file, compression)
}

// Close ends any compressed frames. The descriptors stay open.
func (l *logs) Close() error {
	if l.output == l.input {
		return l.input.Close()
	}
	return errors.Join(l.input.Close(), l.output.Close())
}

func logFile(fd int) (*os.File, error) {
	if fd == unix.Stdin || fd == unix.Stdout {
		return nil, fmt.Errorf("log descriptor %d is a relayed stream", fd)
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err != nil {
		return nil, fmt.Errorf("log descriptor %d: %w", fd, err)
	}
	if fd == unix.Stderr {
		return os.Stderr, nil
	}
	return os.NewFile(uintptr(fd), fmt.Sprintf("log-%d", fd)), nil
}
