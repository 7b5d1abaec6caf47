package utils

import (
	"sync"
	"time"
)

// Clock supplies "now" so date-key and slot logic can be tested.
type Clock interface {
	Now() time.Time
}

type RealClock struct {
	Location *time.Location
}

func NewRealClock(loc *time.Location) RealClock {
	if loc == nil {
		loc = time.Local
	}
	return RealClock{Location: loc}
}

func (c RealClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Today returns the date key of clock's current local day.
func Today(c Clock) string {
	return FormatDateKey(c.Now())
}
