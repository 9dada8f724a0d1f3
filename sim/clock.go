package sim

import "fmt"

// Clock holds the current virtual time in milliseconds.
// Only the simulator's dispatch loop moves it, and only forward.
type Clock struct {
	now int64
}

// Now returns the current virtual time.
func (c *Clock) Now() int64 {
	return c.now
}

// AdvanceTo moves the clock to t and returns the interval that elapsed.
func (c *Clock) AdvanceTo(t int64) int64 {
	if t < c.now {
		panic(fmt.Sprintf("Clock went backwards: %d < %d", t, c.now))
	}
	elapsed := t - c.now
	c.now = t
	return elapsed
}
