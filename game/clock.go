package game

import "time"

// Clock is a Fischer chess clock for two sides: each side owns a bank that
// drains while it is to move and grows by Increment after every move.
type Clock struct {
	Banks       [2]time.Duration
	Increment   time.Duration
	Mover       int
	TurnStarted time.Time
}

func NewClock(bank, increment time.Duration, firstMover int, start time.Time) Clock {
	return Clock{
		Banks:       [2]time.Duration{bank, bank},
		Increment:   increment,
		Mover:       firstMover & 1,
		TurnStarted: start,
	}
}

// Deadline is when the side to move runs out of time.
func (c Clock) Deadline() time.Time {
	return c.TurnStarted.Add(c.Banks[c.Mover])
}

func (c Clock) TimedOut(now time.Time) bool {
	return !now.Before(c.Deadline())
}

// Remaining returns the live bank of side i at now.
func (c Clock) Remaining(i int, now time.Time) time.Duration {
	if i != c.Mover {
		return c.Banks[i]
	}
	left := c.Banks[i] - now.Sub(c.TurnStarted)
	if left < 0 {
		return 0
	}
	return left
}

// Punch charges the mover for the elapsed time, credits the increment and
// hands the turn over. It reports false when the mover had already flagged.
func (c *Clock) Punch(now time.Time) bool {
	if c.TimedOut(now) {
		return false
	}
	c.Banks[c.Mover] = c.Remaining(c.Mover, now) + c.Increment
	c.Mover ^= 1
	c.TurnStarted = now
	return true
}
