package testing

import (
	"sync"
	"time"

	"github.com/go-drift/fiber/pkg/idle"
)

// FakeClock provides controllable time for deterministic scheduler tests.
// All methods are safe for concurrent use.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ idle.Clock = (*FakeClock)(nil)

// NewFakeClock returns a FakeClock starting at a fixed epoch.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set sets the clock to an exact time.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Deadline returns a deadline that expires budget from now. Time only
// passes when the clock is advanced.
func (c *FakeClock) Deadline(budget time.Duration) idle.Deadline {
	return idle.Until(c, c.Now().Add(budget))
}

// Metered returns a deadline that expires budget from now and advances the
// clock by cost every time it is polled, so each unit of work appears to
// take cost.
func (c *FakeClock) Metered(budget, cost time.Duration) idle.Deadline {
	return &meteredDeadline{clock: c, inner: c.Deadline(budget), cost: cost}
}

type meteredDeadline struct {
	clock *FakeClock
	inner idle.Deadline
	cost  time.Duration
}

func (d *meteredDeadline) TimeRemaining() time.Duration {
	d.clock.Advance(d.cost)
	return d.inner.TimeRemaining()
}
