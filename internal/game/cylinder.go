package game

import (
	"math/rand"
	"time"

	"github.com/dcrodman/roulette/internal/protocol"
)

// Source supplies the randomness for loading the cylinder. *rand.Rand
// satisfies it.
type Source interface {
	Intn(n int) int
}

// NewSource returns a time-seeded Source. The returned value is not safe for
// concurrent use; each Session owns its own.
func NewSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Cylinder holds the six chambers of the revolver along with how many of them
// have been fired since the last reload.
type Cylinder struct {
	chambers [protocol.Chambers]protocol.Outcome
	index    int
	live     int
	blank    int
}

// Load redraws every chamber as an independent coin flip and rewinds the
// cylinder. The live/blank split is whatever the flips produce.
func (c *Cylinder) Load(src Source) {
	c.index, c.live, c.blank = 0, 0, 0
	for i := range c.chambers {
		if src.Intn(2) == 1 {
			c.chambers[i] = protocol.Live
			c.live++
		} else {
			c.chambers[i] = protocol.Blank
			c.blank++
		}
	}
}

// Next fires the current chamber. It must not be called on a spent cylinder.
func (c *Cylinder) Next() protocol.Outcome {
	outcome := c.chambers[c.index]
	c.index++
	if outcome == protocol.Live {
		c.live--
	} else {
		c.blank--
	}
	return outcome
}

// Spent reports whether all six chambers have been fired.
func (c *Cylinder) Spent() bool { return c.index >= protocol.Chambers }

// Index is the number of chambers fired since the last reload.
func (c *Cylinder) Index() int { return c.index }

// Live is the number of live rounds left.
func (c *Cylinder) Live() int { return c.live }

// Blank is the number of blanks left.
func (c *Cylinder) Blank() int { return c.blank }
