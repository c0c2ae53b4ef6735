package dynamics

import "math"

// TransmissionSpec describes the gearbox and driven wheels.
type TransmissionSpec struct {
	// GearRatios lists the forward gears, index 0 is first gear.
	GearRatios []float64 `json:"gear_ratios" yaml:"gear_ratios"`
	FinalDrive float64   `json:"final_drive" yaml:"final_drive"`
	// UpshiftRPM defaults to the engine's peak torque RPM.
	UpshiftRPM float64 `json:"upshift_rpm" yaml:"upshift_rpm"`
	// DownshiftRPM defaults to a value low enough that a shift in either
	// direction never lands across the opposite threshold.
	DownshiftRPM float64 `json:"downshift_rpm" yaml:"downshift_rpm"`
	WheelRadius  float64 `json:"wheel_radius" yaml:"wheel_radius"` // m
	// Efficiency is the share of engine torque reaching the wheels, in (0,1].
	Efficiency float64 `json:"efficiency" yaml:"efficiency"`
}

// Validate checks the drivetrain geometry and shift points.
func (s TransmissionSpec) Validate() error {
	if len(s.GearRatios) == 0 {
		return invalidf("at least one gear ratio is required")
	}
	for i, r := range s.GearRatios {
		if !finite(r) || r <= 0 {
			return invalidf("gear %d ratio must be positive", i+1)
		}
	}
	if !finite(s.FinalDrive) || s.FinalDrive <= 0 {
		return invalidf("final drive ratio must be positive")
	}
	if !finite(s.WheelRadius) || s.WheelRadius <= 0 {
		return invalidf("wheel radius must be positive")
	}
	if !finite(s.Efficiency) || s.Efficiency <= 0 || s.Efficiency > 1 {
		return invalidf("drivetrain efficiency %.2f outside (0,1]", s.Efficiency)
	}
	if !finite(s.UpshiftRPM) || s.UpshiftRPM <= 0 {
		return invalidf("upshift rpm must be positive")
	}
	if !finite(s.DownshiftRPM) || s.DownshiftRPM <= 0 {
		return invalidf("downshift rpm must be positive")
	}
	return nil
}

// ShiftDirection tells which way a shift decision moved the gear.
type ShiftDirection int

const (
	ShiftNone ShiftDirection = iota
	ShiftUp
	ShiftDown
)

// String returns a human-readable representation of the direction.
func (d ShiftDirection) String() string {
	switch d {
	case ShiftUp:
		return "up"
	case ShiftDown:
		return "down"
	default:
		return "none"
	}
}

// Delta returns +1 for an upshift, -1 for a downshift and 0 otherwise.
func (d ShiftDirection) Delta() int {
	switch d {
	case ShiftUp:
		return 1
	case ShiftDown:
		return -1
	default:
		return 0
	}
}

// ShiftDecision is the outcome of Transmission.DecideShift.
type ShiftDecision struct {
	Gear      int
	Direction ShiftDirection
}

// Transmission converts between road speed and engine speed and owns the
// automatic shift rule.
type Transmission struct {
	spec   TransmissionSpec
	engine *EngineModel
}

// NewTransmission validates spec. The engine bounds the reported RPM.
func NewTransmission(spec TransmissionSpec, engine *EngineModel) (*Transmission, error) {
	if engine == nil {
		return nil, invalidf("transmission requires an engine model")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec.GearRatios = append([]float64(nil), spec.GearRatios...)
	return &Transmission{spec: spec, engine: engine}, nil
}

// Gears returns the number of forward gears.
func (t *Transmission) Gears() int { return len(t.spec.GearRatios) }

// Ratio returns the ratio of gear, with out of range indexes clamped to the
// nearest valid gear.
func (t *Transmission) Ratio(gear int) float64 {
	return t.spec.GearRatios[t.validGear(gear)]
}

// EngineRPMFor converts road speed (m/s) to engine RPM in gear. The clamped
// value is bounded to [idle, redline] and used for torque lookup and display;
// the unclamped value drives shift decisions.
func (t *Transmission) EngineRPMFor(speed float64, gear int) (clamped, unclamped float64) {
	if math.IsNaN(speed) || speed < 0 {
		speed = 0
	}
	wheel := speed / t.spec.WheelRadius
	engine := wheel * t.Ratio(gear) * t.spec.FinalDrive
	unclamped = engine * 60 / (2 * math.Pi)
	return t.engine.ClampRPM(unclamped), unclamped
}

// DecideShift returns the gear for the next tick. It moves at most one gear:
// up when unclampedRPM reaches the upshift threshold and a higher gear
// exists, otherwise down when the vehicle is moving, unclampedRPM is at or
// below the downshift threshold and a lower gear exists. Upshift wins when
// misconfigured thresholds make both true.
func (t *Transmission) DecideShift(gear int, unclampedRPM float64) ShiftDecision {
	gear = t.validGear(gear)
	switch {
	case unclampedRPM >= t.spec.UpshiftRPM && gear < t.Gears()-1:
		return ShiftDecision{Gear: gear + 1, Direction: ShiftUp}
	case unclampedRPM > 0 && unclampedRPM <= t.spec.DownshiftRPM && gear > 0:
		return ShiftDecision{Gear: gear - 1, Direction: ShiftDown}
	default:
		return ShiftDecision{Gear: gear, Direction: ShiftNone}
	}
}

// WheelForce converts engine torque in gear to tractive force at the tyre
// contact patch.
func (t *Transmission) WheelForce(torque float64, gear int) float64 {
	return torque * t.Ratio(gear) * t.spec.FinalDrive * t.spec.Efficiency / t.spec.WheelRadius
}

// GearFor returns the lowest gear in which speed stays below the upshift
// threshold, or the top gear when none does.
func (t *Transmission) GearFor(speed float64) int {
	for g := 0; g < t.Gears(); g++ {
		if _, rpm := t.EngineRPMFor(speed, g); rpm < t.spec.UpshiftRPM {
			return g
		}
	}
	return t.Gears() - 1
}

func (t *Transmission) validGear(gear int) int {
	if gear < 0 {
		return 0
	}
	if gear >= len(t.spec.GearRatios) {
		return len(t.spec.GearRatios) - 1
	}
	return gear
}
