// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process owns the supervised child once it has been spawned
// and the exit-code conventions of the hexlog binary.
//
// [Start] forks and executes the child and, where the OS offers one,
// obtains a waitable process handle (a pidfd on Linux). The handle lets
// the relay loop detect exit without racing unrelated SIGCHLDs; on
// other systems [Child.Handle] is -1 and SIGCHLD alone ends the loop.
//
// [Child.Wait] is the reaping primitive: it blocks until the child
// exits, retrying on EINTR, and returns the raw wait status. [ExitCode]
// maps that status to the supervisor's own exit code:
//
//   - normal exit: the child's code
//   - killed by signal N: 128+N
//   - anything else: [ExitFailure]
//
// [ExitExec] is reserved for a command that could not be executed.
package process
