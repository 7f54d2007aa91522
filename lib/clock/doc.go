// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the flush timer.
//
// The relay loop re-arms a one-shot timer before every readiness wait
// and expects its expiry to arrive as a callback. Production code uses
// [Real]; tests use [Fake], which fires callbacks synchronously from
// [FakeClock.Advance] so a test can trigger a flush at an exact point
// without sleeping.
//
// # Synchronization
//
// A goroutine that arms a timer on a FakeClock registers a pending
// waiter. Call [FakeClock.WaitForTimers] before Advance to make sure
// the waiter exists:
//
//	fake := clock.Fake(time.Unix(0, 0))
//	go loop.Run()
//	fake.WaitForTimers(1)
//	fake.Advance(time.Second)
package clock
