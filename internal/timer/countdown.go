// Package timer implements the per-question countdown.
package timer

import (
	"fmt"
	"sync"
	"time"

	"pretest-quiz-service/internal/clock"
)

const tickInterval = time.Second

// Countdown counts down once per whole second while active. Restarting
// supersedes any prior countdown; deactivating pauses without resetting.
// Expiry fires at most once per restart.
type Countdown struct {
	sched    clock.Scheduler
	duration int

	mu        sync.Mutex
	remaining int
	active    bool
	expired   bool
	gen       uint64
	epoch     uint64
	pending   clock.Handle
	onTick    func(remaining int)
	onExpire  func(epoch uint64)
}

// Option configures a Countdown.
type Option func(*Countdown)

// OnTick registers a callback invoked after every decrement.
func OnTick(f func(remaining int)) Option {
	return func(c *Countdown) { c.onTick = f }
}

// OnExpire registers the expiry callback. The callback receives the epoch
// returned by the Restart that armed the expiring countdown.
func OnExpire(f func(epoch uint64)) Option {
	return func(c *Countdown) { c.onExpire = f }
}

// New builds an inactive countdown of the given length in seconds.
func New(sched clock.Scheduler, seconds int, opts ...Option) *Countdown {
	if seconds <= 0 {
		seconds = 1
	}
	c := &Countdown{sched: sched, duration: seconds, remaining: seconds}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restart resets the remaining time to the full duration and starts counting.
// It returns a new epoch identifying this countdown period.
func (c *Countdown) Restart() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = c.duration
	c.expired = false
	c.active = true
	c.epoch++
	c.armLocked()
	return c.epoch
}

// SetActive pauses (false) or resumes (true) the countdown. Resuming an
// expired countdown does nothing until the next Restart.
func (c *Countdown) SetActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !active {
		c.active = false
		c.cancelLocked()
		return
	}
	if c.active || c.expired || c.remaining <= 0 {
		return
	}
	c.active = true
	c.armLocked()
}

// Stop is shorthand for SetActive(false).
func (c *Countdown) Stop() { c.SetActive(false) }

// Active reports whether the countdown is ticking.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Remaining returns the whole seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Duration returns the configured length in seconds.
func (c *Countdown) Duration() int { return c.duration }

// PercentRemaining is remaining/duration scaled to 0..100.
func (c *Countdown) PercentRemaining() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.remaining) / float64(c.duration) * 100
}

// PercentElapsed is the complement of PercentRemaining.
func (c *Countdown) PercentElapsed() float64 {
	return 100 - c.PercentRemaining()
}

func (c *Countdown) armLocked() {
	c.cancelLocked()
	gen := c.gen
	c.pending = c.sched.AfterFunc(tickInterval, func() { c.tick(gen) })
}

// cancelLocked drops the scheduled tick and invalidates any tick already in flight.
func (c *Countdown) cancelLocked() {
	c.gen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.active || c.remaining <= 0 {
		c.mu.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	fire := false
	if remaining == 0 {
		c.active = false
		c.pending = nil
		if !c.expired {
			c.expired = true
			fire = true
		}
	} else {
		c.armLocked()
	}
	onTick, onExpire, epoch := c.onTick, c.onExpire, c.epoch
	c.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if fire && onExpire != nil {
		onExpire(epoch)
	}
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
