package gesture

import "time"

// Cooldown debounces a class of gestures: after a trigger, further triggers
// are refused until strictly more than the window has elapsed.
type Cooldown struct {
	window time.Duration
	last   time.Time
}

// NewCooldown creates a Cooldown with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window}
}

// CanTrigger reports whether a gesture may fire at now.
func (c *Cooldown) CanTrigger(now time.Time) bool {
	if c.last.IsZero() {
		return true
	}
	return now.Sub(c.last) > c.window
}

// Trigger records a firing at now.
func (c *Cooldown) Trigger(now time.Time) {
	c.last = now
}

// Reset forgets the last trigger.
func (c *Cooldown) Reset() {
	c.last = time.Time{}
}

// Window returns the cooldown duration.
func (c *Cooldown) Window() time.Duration {
	return c.window
}
