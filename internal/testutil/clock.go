package testutil

import (
	"sync"
	"time"
)

// DeterministicClock provides a thread-safe stepping wall clock for tests.
//
// Each call to Now returns the previous instant plus Step, starting at
// Start+Step. The same test run therefore sees identical upload times.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	n     int64
}

// DefaultStart is the instant clocks created with a zero start begin from.
var DefaultStart = time.UnixMilli(1_700_000_000_000).UTC()

// NewDeterministicClock creates a clock starting at start and advancing by
// step on every read. A zero start uses DefaultStart; a zero step freezes
// the clock.
func NewDeterministicClock(start time.Time, step time.Duration) *DeterministicClock {
	if start.IsZero() {
		start = DefaultStart
	}
	return &DeterministicClock{start: start, step: step}
}

// Now advances the clock by one step and returns the new instant.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.start.Add(time.Duration(c.n) * c.step)
}

// Current returns the last instant handed out without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(time.Duration(c.n) * c.step)
}

// Reset rewinds the clock to its start.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
