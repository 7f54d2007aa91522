// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock set to initial. Time moves only when
// Advance is called.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.waitersChanged = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock for tests. It is safe for
// concurrent use. Do not call Advance from inside a callback.
type FakeClock struct {
	mu             sync.Mutex
	current        time.Time
	waiters        []*fakeWaiter
	waitersChanged *sync.Cond
}

type fakeWaiter struct {
	deadline time.Time
	callback func()
	// pending is true while the waiter sits in FakeClock.waiters.
	pending bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc registers f to run once the clock passes now+d. A
// non-positive d runs f before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	waiter := &fakeWaiter{callback: f}
	timer := &Timer{
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.removeLocked(waiter)
		},
		resetFunc: func(d time.Duration) bool {
			c.mu.Lock()
			wasPending := c.removeLocked(waiter)
			if d <= 0 {
				c.mu.Unlock()
				waiter.callback()
				return wasPending
			}
			c.addLocked(waiter, d)
			c.mu.Unlock()
			return wasPending
		},
	}
	if d <= 0 {
		f()
		return timer
	}
	c.mu.Lock()
	c.addLocked(waiter, d)
	c.mu.Unlock()
	return timer
}

// Advance moves the clock forward by d and runs every callback whose
// deadline is reached, in deadline order, on the calling goroutine.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current

	var expired, remaining []*fakeWaiter
	for _, waiter := range c.waiters {
		if waiter.deadline.After(target) {
			remaining = append(remaining, waiter)
			continue
		}
		waiter.pending = false
		expired = append(expired, waiter)
	}
	c.waiters = remaining
	c.waitersChanged.Broadcast()
	c.mu.Unlock()

	sort.SliceStable(expired, func(i, j int) bool {
		return expired[i].deadline.Before(expired[j].deadline)
	})
	for _, waiter := range expired {
		waiter.callback()
	}
}

// WaitForTimers blocks until at least n timers are pending.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.waitersChanged.Wait()
	}
}

// PendingCount returns the number of armed timers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// addLocked arms waiter at now+d. Must be called with c.mu held.
func (c *FakeClock) addLocked(waiter *fakeWaiter, d time.Duration) {
	waiter.deadline = c.current.Add(d)
	waiter.pending = true
	c.waiters = append(c.waiters, waiter)
	c.waitersChanged.Broadcast()
}

// removeLocked disarms waiter and reports whether it was pending.
// Must be called with c.mu held.
func (c *FakeClock) removeLocked(waiter *fakeWaiter) bool {
	if !waiter.pending {
		return false
	}
	for i, candidate := range c.waiters {
		if candidate == waiter {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			break
		}
	}
	waiter.pending = false
	c.waitersChanged.Broadcast()
	return true
}
