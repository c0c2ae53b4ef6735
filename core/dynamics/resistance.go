package dynamics

// StandardGravity is the gravitational acceleration used for rolling
// resistance, in m/s².
const StandardGravity = 9.80665

// BodySpec describes the vehicle body and brakes.
type BodySpec struct {
	Mass              float64 `json:"mass" yaml:"mass"` // kg
	DragCoefficient   float64 `json:"drag_coefficient" yaml:"drag_coefficient"`
	FrontalArea       float64 `json:"frontal_area" yaml:"frontal_area"` // m²
	RollingResistance float64 `json:"rolling_resistance" yaml:"rolling_resistance"`
	AirDensity        float64 `json:"air_density" yaml:"air_density"` // kg/m³
	// MaxBrakeForce is the braking force at full pedal, in N.
	MaxBrakeForce float64 `json:"max_brake_force" yaml:"max_brake_force"`
}

// SetDefaults applies sea level air density when none is set.
func (s *BodySpec) SetDefaults() {
	if s.AirDensity == 0 {
		s.AirDensity = 1.225
	}
}

// Validate checks that the body coefficients are usable.
func (s BodySpec) Validate() error {
	if !finite(s.Mass) || s.Mass <= 0 {
		return invalidf("vehicle mass must be positive")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"drag coefficient", s.DragCoefficient},
		{"frontal area", s.FrontalArea},
		{"rolling resistance", s.RollingResistance},
		{"air density", s.AirDensity},
		{"max brake force", s.MaxBrakeForce},
	} {
		if !finite(f.v) || f.v < 0 {
			return invalidf("%s must not be negative", f.name)
		}
	}
	return nil
}

// ResistanceModel computes the forces opposing forward motion.
type ResistanceModel struct {
	dragConst float64
	rolling   float64
}

// NewResistanceModel precomputes the drag and rolling terms of body.
func NewResistanceModel(body BodySpec) *ResistanceModel {
	return &ResistanceModel{
		dragConst: 0.5 * body.AirDensity * body.DragCoefficient * body.FrontalArea,
		rolling:   body.RollingResistance * body.Mass * StandardGravity,
	}
}

// Drag returns the aerodynamic drag at speed.
func (r *ResistanceModel) Drag(speed float64) float64 {
	if !(speed > 0) {
		return 0
	}
	return r.dragConst * speed * speed
}

// Rolling returns the rolling resistance at speed. A stationary vehicle has
// none, static friction is not modelled.
func (r *ResistanceModel) Rolling(speed float64) float64 {
	if !(speed > 0) {
		return 0
	}
	return r.rolling
}

// Force returns the total resisting force at speed. It is never negative.
func (r *ResistanceModel) Force(speed float64) float64 {
	return r.Drag(speed) + r.Rolling(speed)
}
