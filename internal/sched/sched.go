// Package sched implements the scheduler lock used to keep multicast
// deliveries ordered.
//
// Active objects in this runtime run on their own goroutines. Before an
// object starts processing its next event it waits until its priority is
// above the current lock ceiling. Publishing raises the ceiling to the
// highest subscriber for the duration of the multicast, so none of the
// subscribers can start on the event before all of them have it queued,
// while unrelated higher priority objects keep running.
package sched

import (
	"context"
	"sync"

	"github.com/rmacdonaldsmith/aomesh/pkg/active"
)

// Ceiling is a priority-ceiling scheduler lock. Locks may be taken
// concurrently by independent publishers; the effective ceiling is the
// highest one currently held.
type Ceiling struct {
	mu      sync.Mutex
	held    [active.MaxActive + 1]int // lock count per ceiling
	ceiling active.Priority
	changed chan struct{} // closed and replaced whenever the ceiling drops
}

// NewCeiling returns an unlocked scheduler.
func NewCeiling() *Ceiling {
	return &Ceiling{changed: make(chan struct{})}
}

// Lock raises the ceiling to at least p.
func (c *Ceiling) Lock(p active.Priority) active.LockStatus {
	if p > active.MaxActive {
		p = active.MaxActive
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st := active.LockStatus{Prev: c.ceiling, Ceiling: p}
	c.held[p]++
	if p > c.ceiling {
		c.ceiling = p
	}
	return st
}

// Unlock releases the lock described by st.
func (c *Ceiling) Unlock(st active.LockStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.held[st.Ceiling] == 0 {
		return
	}
	c.held[st.Ceiling]--

	next := active.Priority(0)
	for p := c.ceiling; p > 0; p-- {
		if c.held[p] > 0 {
			next = p
			break
		}
	}
	if next < c.ceiling {
		c.ceiling = next
		c.signalLocked()
	}
}

// Current returns the effective ceiling; 0 means unlocked.
func (c *Ceiling) Current() active.Priority {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ceiling
}

// WaitRunnable blocks until an object of priority p may start processing,
// that is until the ceiling drops below p, or ctx is done.
func (c *Ceiling) WaitRunnable(ctx context.Context, p active.Priority) error {
	for {
		c.mu.Lock()
		if c.ceiling < p {
			c.mu.Unlock()
			return nil
		}
		ch := c.changedLocked()
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Ceiling) changedLocked() chan struct{} {
	if c.changed == nil {
		c.changed = make(chan struct{})
	}
	return c.changed
}

func (c *Ceiling) signalLocked() {
	if c.changed != nil {
		close(c.changed)
	}
	c.changed = make(chan struct{})
}

// Nop is the scheduler of a cooperative runtime, where an event handler
// always runs to completion before the next one starts and locking is
// unnecessary.
type Nop struct{}

// Lock returns a status without locking anything.
func (Nop) Lock(p active.Priority) active.LockStatus {
	return active.LockStatus{Ceiling: p}
}

// Unlock does nothing.
func (Nop) Unlock(active.LockStatus) {}

// WaitRunnable returns immediately unless ctx is already done.
func (Nop) WaitRunnable(ctx context.Context, _ active.Priority) error {
	return ctx.Err()
}

var (
	_ active.Scheduler = (*Ceiling)(nil)
	_ active.Scheduler = Nop{}
)
