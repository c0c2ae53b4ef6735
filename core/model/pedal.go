package model

// PedalCommand is the digital intent read from a pedal device before it is
// turned into analog pedal positions.
type PedalCommand int

const (
	PedalRoll PedalCommand = iota
	PedalAccelerate
	PedalBrake
)

// String returns a human-readable representation of the command.
func (c PedalCommand) String() string {
	switch c {
	case PedalRoll:
		return "roll"
	case PedalAccelerate:
		return "accelerate"
	case PedalBrake:
		return "brake"
	default:
		return "unknown"
	}
}

// PedalInput holds normalized pedal positions fed to the integrator.
type PedalInput struct {
	Throttle float64 // [0,1]
	Brake    float64 // [0,1]
}

// Idle returns true when neither pedal is pressed.
func (p PedalInput) Idle() bool {
	return p.Throttle == 0 && p.Brake == 0
}
