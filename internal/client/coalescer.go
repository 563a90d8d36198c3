package client

import (
	"sync"
	"time"

	"github.com/dkeye/Desk/internal/domain"
)

// CursorCoalescer forwards at most one position per window: the latest one seen.
type CursorCoalescer struct {
	window time.Duration
	flush  func(domain.Position)

	mu      sync.Mutex
	pending *domain.Position
	timer   *time.Timer
	stopped bool
}

func NewCursorCoalescer(window time.Duration, flush func(domain.Position)) *CursorCoalescer {
	return &CursorCoalescer{window: window, flush: flush}
}

// Update records pos and arms the window if it is not already running.
func (c *CursorCoalescer) Update(pos domain.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.pending = &pos
	if c.timer == nil {
		c.timer = time.AfterFunc(c.window, c.fire)
	}
}

func (c *CursorCoalescer) fire() {
	c.mu.Lock()
	pos := c.pending
	c.pending = nil
	c.timer = nil
	stopped := c.stopped
	c.mu.Unlock()

	if pos != nil && !stopped {
		c.flush(*pos)
	}
}

// Stop drops any pending position. Later updates are ignored.
func (c *CursorCoalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
