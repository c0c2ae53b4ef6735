package events

import (
	"time"

	"github.com/kilianp07/carsim/core/dynamics"
	"github.com/kilianp07/carsim/core/model"
)

// StateEvent is published after each tick of a vehicle integrator.
type StateEvent struct {
	VehicleID string
	Snapshot  model.Snapshot
	Forces    dynamics.Forces
	Time      time.Time
}

// ShiftEvent is published when a tick changed gear.
type ShiftEvent struct {
	VehicleID string
	From      int
	To        int
	Direction dynamics.ShiftDirection
	Speed     float64
	EngineRPM float64
	Elapsed   float64
	Time      time.Time
}

// ShiftFrom derives the shift event of a snapshot. ok is false when the tick
// did not change gear.
func ShiftFrom(vehicleID string, s model.Snapshot, at time.Time) (ShiftEvent, bool) {
	if s.Shifted == 0 {
		return ShiftEvent{}, false
	}
	dir := dynamics.ShiftUp
	if s.Shifted < 0 {
		dir = dynamics.ShiftDown
	}
	return ShiftEvent{
		VehicleID: vehicleID,
		From:      s.Gear - s.Shifted,
		To:        s.Gear,
		Direction: dir,
		Speed:     s.Speed,
		EngineRPM: s.EngineRPM,
		Elapsed:   s.Elapsed,
		Time:      at,
	}, true
}
