// Package layout runs the force-directed simulation that positions graph nodes.
package layout

import (
	"time"

	"github.com/hrygo/notegraph/plugin/graph"
)

// Config contains the physics constants of the simulation.
type Config struct {
	// Repulsion is k in the pairwise k/d² push between every two nodes.
	Repulsion float64
	// Gravity scales the pull of every node toward Center.
	Gravity float64
	// Attraction is the spring constant of every edge.
	Attraction float64
	// RestLength is the edge length at which a spring exerts no force.
	RestLength float64
	// Damping multiplies velocities after each tick. Must be below 1 for the layout to settle.
	Damping float64
	// DtFactor scales both the velocity and the position update of a tick.
	DtFactor float64
	// MinDistance clamps pair distances before the inverse-square repulsion.
	MinDistance float64
	// MaxVelocity caps node speed per tick; 0 disables the cap.
	MaxVelocity float64
	// Center is the fixed point gravity pulls toward.
	Center graph.Vec

	// TickInterval is the period of Run, independent of any frame rate.
	TickInterval time.Duration
	// SettleEnergy freezes Run once kinetic energy stays below it for
	// SettleTicks consecutive ticks. 0 keeps the simulation running forever.
	SettleEnergy float64
	SettleTicks  int
}

// DefaultConfig returns the default simulation constants.
func DefaultConfig() Config {
	return Config{
		Repulsion:    5000,
		Gravity:      0.01,
		Attraction:   0.05,
		RestLength:   120,
		Damping:      0.85,
		DtFactor:     1,
		MinDistance:  1,
		MaxVelocity:  50,
		TickInterval: 16 * time.Millisecond,
		SettleEnergy: 0.05,
		SettleTicks:  60,
	}
}

// withDefaults fills the constants a simulation cannot run without. The zero
// Config means DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c == (Config{}) {
		return d
	}
	if c.MinDistance <= 0 {
		c.MinDistance = d.MinDistance
	}
	if c.DtFactor <= 0 {
		c.DtFactor = d.DtFactor
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		c.Damping = d.Damping
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.SettleTicks <= 0 {
		c.SettleTicks = d.SettleTicks
	}
	return c
}
