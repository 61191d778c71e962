// Package pace throttles a sequential lookup batch: after every N network
// lookups the batch pauses for a fixed cooldown so the upstream registry
// service is never hammered.
package pace

import (
	"time"

	"github.com/rs/zerolog"
)

// Cooler counts lookups and sleeps for the cooldown interval after each
// full window of them.
type Cooler struct {
	// Sleep blocks for the cooldown interval. Replaceable in tests.
	Sleep func(d time.Duration)

	window   int
	cooldown time.Duration
	count    int
	log      zerolog.Logger
}

// NewCooler creates a Cooler pausing for cooldown after every window
// lookups. Non-positive arguments fall back to the defaults (10 lookups,
// 2 seconds).
func NewCooler(window int, cooldown time.Duration, log zerolog.Logger) *Cooler {
	if window <= 0 {
		window = 10
	}
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}
	return &Cooler{
		window:   window,
		cooldown: cooldown,
		log:      log,
		Sleep:    time.Sleep,
	}
}

// Tick records one completed network lookup and blocks for the cooldown
// interval when a window boundary is reached. It returns true when a pause
// happened.
func (c *Cooler) Tick() bool {
	c.count++
	if c.count%c.window != 0 {
		return false
	}
	c.log.Info().
		Int("lookups", c.count).
		Dur("cooldown", c.cooldown).
		Msgf("pausing after another %d lookups", c.window)
	c.Sleep(c.cooldown)
	return true
}

// Count returns the number of lookups recorded so far.
func (c *Cooler) Count() int {
	return c.count
}
