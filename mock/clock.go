package mock

import (
	"sync"
	"time"

	"github.com/rabidaudio/sdwav/clock"
)

// Clock is a manual clock. Sleep returns immediately after moving the
// clock forward.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// ensure interface conformation
var _ clock.Clock = (*Clock)(nil)

func NewClock() *Clock {
	return &Clock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Sleep(d time.Duration) {
	c.Advance(d)
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
