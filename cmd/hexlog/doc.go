// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// hexlog runs a command and relays its standard input and output
// unchanged while mirroring both streams to a side log as a hex dump
// (or raw bytes):
//
//	hexlog inout sh -c 'echo hello'
//
// The first argument selects which directions are logged: none, in
// (caller to command), out (command to caller) or inout. A "raw" prefix
// (rawin, rawinout, ...) logs the bytes verbatim instead of as a hex
// dump. Everything after the command name is passed to the command,
// flags included.
//
// Logging can be changed while the command runs by signalling hexlog:
// SIGUSR1 toggles the in direction, SIGUSR2 the out direction and
// SIGHUP restores the direction given on the command line. SIGINT,
// SIGTERM, SIGQUIT, SIGWINCH, SIGCONT and SIGTSTP are passed on to the
// command's process group.
//
// Hex-dump lines are 16 bytes wide. A partial line is held until it
// fills, the command exits, or the flush interval (HEXLOG_INTERVAL,
// seconds) elapses. Labels, log descriptors and the remaining settings
// come from HEXLOG_* environment variables or the file named by
// HEXLOG_CONFIG; see package lib/config.
//
// hexlog exits with the command's exit status, 128+N if the command was
// killed by signal N, 126 if the command could not be executed and 111
// if hexlog itself failed.
package main
