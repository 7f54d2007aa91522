// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations used by hexlog.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for duration d, then calls f in its own
	// goroutine (real) or synchronously from Advance (fake). The
	// returned Timer can be stopped or re-armed.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending one-shot callback.
type Timer struct {
	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop prevents the Timer from firing. Returns false if the timer
// already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset re-arms the timer to fire after d, whether or not it already
// fired. Returns true if the timer was pending.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }
