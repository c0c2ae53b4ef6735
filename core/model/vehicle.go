package model

import "fmt"

// VehicleState is the authoritative longitudinal state of a simulated vehicle.
// It is owned by the dynamics integrator and only mutated by its tick.
type VehicleState struct {
	Speed     float64 // m/s, never negative
	EngineRPM float64 // clamped to [idle, redline]
	Gear      int     // index into the gear ratios, 0 is first gear
	Throttle  float64 // [0,1]
	Brake     float64 // [0,1]
}

// Snapshot is a read-only copy of VehicleState handed to presentation and
// telemetry consumers.
type Snapshot struct {
	VehicleState
	// Elapsed is the simulated time in seconds since the integrator started.
	Elapsed float64
	// Shifted reports the gear change applied by the tick that produced the
	// snapshot: +1 upshift, -1 downshift, 0 none.
	Shifted int
}

// SpeedKMH returns the speed in kilometres per hour.
func (s Snapshot) SpeedKMH() float64 { return s.Speed * 3.6 }

// GearNumber returns the 1-based gear shown to a driver.
func (s Snapshot) GearNumber() int { return s.Gear + 1 }

// String formats the snapshot the way the dashboard shows it.
func (s Snapshot) String() string {
	return fmt.Sprintf("%.2f KM/H | Gear %d | %.0f RPM", s.SpeedKMH(), s.GearNumber(), s.EngineRPM)
}
