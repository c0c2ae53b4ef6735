package metrics

import (
	"time"

	"github.com/kilianp07/carsim/core/model"
)

// VehicleStateEvent is a sampled snapshot of a simulated vehicle.
type VehicleStateEvent struct {
	VehicleID string
	Snapshot  model.Snapshot
	// NetForce is the force balance of the last integration step, in N.
	NetForce float64
	Time     time.Time
}

// TelemetrySink records vehicle state samples.
type TelemetrySink interface {
	RecordVehicleState(ev VehicleStateEvent) error
}

// GearShiftEvent captures a gear change.
type GearShiftEvent struct {
	VehicleID string
	From      int
	To        int
	// Direction is "up" or "down".
	Direction string
	Speed     float64
	EngineRPM float64
	Time      time.Time
}

// GearShiftRecorder is implemented by sinks able to record gear shifts.
type GearShiftRecorder interface {
	RecordGearShift(ev GearShiftEvent) error
}

// NopSink implements TelemetrySink with no-op methods.
type NopSink struct{}

func (NopSink) RecordVehicleState(VehicleStateEvent) error { return nil }

// Ensure NopSink implements GearShiftRecorder.
func (NopSink) RecordGearShift(GearShiftEvent) error { return nil }
