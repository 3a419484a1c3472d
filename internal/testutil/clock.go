package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant a DeterministicClock starts from.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock provides a thread-safe, strictly increasing clock for
// tests. Every reading advances one step (one millisecond by default), so
// the same scenario always yields the same created_at/updated_at values.
//
// Unlike store.MonotonicClock, DeterministicClock can be reset for test
// reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	seq  int64
	step time.Duration
}

// NewDeterministicClock creates a clock whose first reading is Epoch plus
// one millisecond.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{step: time.Millisecond}
}

// Now advances the clock and returns the new instant.
//
// Implements store.Clock.
func (c *DeterministicClock) Now() time.Time {
	return c.at(c.Next())
}

// Next increments and returns the reading sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the number of readings so far without advancing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Time returns the instant of the latest reading (Epoch before any).
func (c *DeterministicClock) Time() time.Time {
	return c.at(c.Current())
}

// Reset rewinds the clock to Epoch.
//
// After Reset(), the next call to Now() returns Epoch plus one step.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

func (c *DeterministicClock) at(seq int64) time.Time {
	return Epoch.Add(time.Duration(seq) * c.step)
}
