package config

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/carsim/core/dynamics"
)

// maxStepLimit bounds max_step_seconds; coarser Euler steps are unstable.
const maxStepLimit = 1.0

// SimulationConfig controls the tick loop.
type SimulationConfig struct {
	// TickHz is the target number of ticks per second.
	TickHz int `json:"tick_hz"`
	// MaxStepSeconds bounds a single integration substep.
	MaxStepSeconds float64 `json:"max_step_seconds"`
	// DurationSeconds stops the run after this much simulated time.
	// Zero runs until interrupted.
	DurationSeconds float64 `json:"duration_seconds"`
	VehicleID       string  `json:"vehicle_id"`
}

// SetDefaults applies sane defaults.
func (c *SimulationConfig) SetDefaults() {
	if c.TickHz == 0 {
		c.TickHz = 60
	}
	if c.MaxStepSeconds == 0 {
		c.MaxStepSeconds = dynamics.DefaultMaxStep
	}
	if c.VehicleID == "" {
		c.VehicleID = "car-1"
	}
}

// Validate checks ranges.
func (c SimulationConfig) Validate() error {
	if c.TickHz <= 0 || c.TickHz > 1000 {
		return fmt.Errorf("tick_hz must be in (0, 1000], got %d", c.TickHz)
	}
	if math.IsNaN(c.MaxStepSeconds) || c.MaxStepSeconds < dynamics.MinStep || c.MaxStepSeconds > maxStepLimit {
		return fmt.Errorf("max_step_seconds must be in [%g, %g]", dynamics.MinStep, maxStepLimit)
	}
	if math.IsNaN(c.DurationSeconds) || c.DurationSeconds < 0 {
		return fmt.Errorf("duration_seconds must not be negative")
	}
	return nil
}

// TickInterval returns the wall-clock period of one tick.
func (c SimulationConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickHz)
}

// Duration returns the configured run length, zero when unbounded.
func (c SimulationConfig) Duration() time.Duration {
	return time.Duration(c.DurationSeconds * float64(time.Second))
}
