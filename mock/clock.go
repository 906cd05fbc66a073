package mock

import (
	"fmt"
	"sync"
	"time"
)

// Clock is a manually advanced time source.
type Clock struct {
	now   time.Time
	mutex sync.Mutex
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

// SequenceGenerator yields Prefix followed by an increasing counter.
type SequenceGenerator struct {
	Prefix string

	n     int
	mutex sync.Mutex
}

func (g *SequenceGenerator) Next() (string, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.n++
	return fmt.Sprintf("%s%d", g.Prefix, g.n), nil
}
