// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay is the event-driven core of hexlog: it forwards bytes
// between the caller and the supervised child and mirrors them to a
// side log.
//
// The pieces, leaves first:
//
//   - [Direction] is the logging mask over [In] (caller to child) and
//     [Out] (child to caller). It gates only the mirroring; relayed
//     bytes always reach their destination.
//   - [Endpoint] owns one source/sink descriptor pair. [Endpoint.Pump]
//     reads once, writes the bytes in full to the sink, then appends
//     them to a carry buffer that is dumped through the formatter in
//     16-byte-aligned chunks, so a hex-dump line never splits across
//     two reads.
//   - [State] and [Notifier] form the control plane. The notifier is
//     the only code that runs when a signal arrives: it writes the
//     signal number into a socket. [State.Apply] interprets the number
//     later, inside the loop, so the direction mask is never touched
//     concurrently.
//   - [Loop] multiplexes the endpoints, the signal socket, the child's
//     input hang-up and the child's process handle with poll(2) on a
//     single goroutine.
//
// Signal meanings:
//
//	SIGHUP    reset the mask to its initial value
//	SIGUSR1   toggle logging of caller to child
//	SIGUSR2   toggle logging of child to caller
//	SIGALRM   flush pending partial lines (flush interval timer)
//	SIGCHLD   the child exited; end the loop
//	others    forwarded to the child's process group
package relay
