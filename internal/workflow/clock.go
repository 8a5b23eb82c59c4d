package workflow

import "time"

// Clock supplies "now" to the engine and sweeper. Business logic never reads
// the wall clock directly, so tests can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by time.Now in UTC.
func SystemClock() Clock { return systemClock{} }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	Instant time.Time
}

func (c *FixedClock) Now() time.Time { return c.Instant }

// Advance moves the fixed clock forward.
func (c *FixedClock) Advance(d time.Duration) { c.Instant = c.Instant.Add(d) }
