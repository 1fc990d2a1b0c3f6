package clock

import (
	"sync"
	"time"
)

// FakeClock is a deterministic Clock. Time stands still until Advance is
// called. AfterFunc callbacks run synchronously inside Advance, in
// deadline order, without the clock's lock held, so a callback may
// schedule further timers.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*fakeWaiter
	changed *sync.Cond
}

type fakeWaiter struct {
	deadline time.Time
	channel  chan time.Time // After waiters
	callback func()         // AfterFunc waiters
	done     bool
}

// Fake returns a FakeClock set to initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.waiters = append(c.waiters, &fakeWaiter{deadline: c.current.Add(d), channel: channel})
	c.changed.Broadcast()
	return channel
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stopFunc: func() bool { return false }}
	}

	c.mu.Lock()
	waiter := &fakeWaiter{deadline: c.current.Add(d), callback: f}
	c.waiters = append(c.waiters, waiter)
	c.changed.Broadcast()
	c.mu.Unlock()

	return &Timer{stopFunc: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if waiter.done {
			return false
		}
		waiter.done = true
		c.prune()
		return true
	}}
}

// Advance moves the clock forward by d, firing every timer whose deadline
// falls inside the window. Timers scheduled by a firing callback are
// fired too if their deadline is still inside the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	for {
		next := c.earliest(target)
		if next == nil {
			c.current = target
			c.prune()
			c.mu.Unlock()
			return
		}
		next.done = true
		c.current = next.deadline
		if next.channel != nil {
			next.channel <- next.deadline
			continue
		}
		c.mu.Unlock()
		next.callback()
		c.mu.Lock()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

// WaitForTimers blocks until at least n timers are pending. Use it before
// Advance when the timer is registered by another goroutine.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, w := range c.waiters {
		if !w.done {
			count++
		}
	}
	return count
}

func (c *FakeClock) earliest(limit time.Time) *fakeWaiter {
	var best *fakeWaiter
	for _, w := range c.waiters {
		if w.done || w.deadline.After(limit) {
			continue
		}
		if best == nil || w.deadline.Before(best.deadline) {
			best = w
		}
	}
	return best
}

func (c *FakeClock) prune() {
	live := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.done {
			live = append(live, w)
		}
	}
	for i := len(live); i < len(c.waiters); i++ {
		c.waiters[i] = nil
	}
	c.waiters = live
}
