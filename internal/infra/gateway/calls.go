package gateway

import (
	"context"
	"sync"
)

// callTracker counts tool calls in flight so shutdown can let them finish.
type callTracker struct {
	mu     sync.Mutex
	active int
	idle   chan struct{}
}

func (c *callTracker) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == 0 {
		c.idle = make(chan struct{})
	}
	c.active++
}

func (c *callTracker) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active--
	if c.active == 0 {
		close(c.idle)
	}
}

func (c *callTracker) inFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// wait blocks until no call is in flight or ctx is done.
func (c *callTracker) wait(ctx context.Context) error {
	c.mu.Lock()
	if c.active == 0 {
		c.mu.Unlock()
		return nil
	}
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
