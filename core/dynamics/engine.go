package dynamics

import (
	"math"

	"gonum.org/v1/gonum/interp"
)

// TorquePoint is one calibrated sample of the engine torque curve.
type TorquePoint struct {
	RPM    float64 `json:"rpm" yaml:"rpm"`
	Torque float64 `json:"torque" yaml:"torque"` // N·m at full throttle
}

// EngineSpec describes the engine calibration.
type EngineSpec struct {
	TorqueCurve []TorquePoint `json:"torque_curve" yaml:"torque_curve"`
	IdleRPM     float64       `json:"idle_rpm" yaml:"idle_rpm"`
	RedlineRPM  float64       `json:"redline_rpm" yaml:"redline_rpm"`
	// InertiaFactor scales the vehicle mass to account for rotating engine
	// and drivetrain inertia. 1 means no extra inertia.
	InertiaFactor float64 `json:"inertia_factor" yaml:"inertia_factor"`
}

// SetDefaults applies defaults for optional fields.
func (s *EngineSpec) SetDefaults() {
	if s.InertiaFactor == 0 {
		s.InertiaFactor = 1
	}
}

// Validate checks the torque curve and RPM bounds.
func (s EngineSpec) Validate() error {
	if len(s.TorqueCurve) < 2 {
		return invalidf("torque curve needs at least 2 samples, got %d", len(s.TorqueCurve))
	}
	for i, p := range s.TorqueCurve {
		if !finite(p.RPM) || !finite(p.Torque) {
			return invalidf("torque curve sample %d is not finite", i)
		}
		if p.Torque < 0 {
			return invalidf("torque curve sample %d has negative torque %.1f", i, p.Torque)
		}
		if i > 0 && p.RPM <= s.TorqueCurve[i-1].RPM {
			return invalidf("torque curve not ordered by rpm at sample %d (%.0f after %.0f)", i, p.RPM, s.TorqueCurve[i-1].RPM)
		}
	}
	if !finite(s.IdleRPM) || s.IdleRPM <= 0 {
		return invalidf("idle rpm must be positive")
	}
	if !finite(s.RedlineRPM) || s.RedlineRPM <= s.IdleRPM {
		return invalidf("redline rpm %.0f must exceed idle rpm %.0f", s.RedlineRPM, s.IdleRPM)
	}
	if !finite(s.InertiaFactor) || s.InertiaFactor <= 0 {
		return invalidf("inertia factor must be positive")
	}
	return nil
}

// EngineModel maps engine speed to the torque available at full throttle.
type EngineModel struct {
	spec    EngineSpec
	curve   interp.PiecewiseLinear
	peakRPM float64
}

// NewEngineModel validates spec and fits its torque curve.
func NewEngineModel(spec EngineSpec) (*EngineModel, error) {
	spec.SetDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec.TorqueCurve = append([]TorquePoint(nil), spec.TorqueCurve...)
	xs := make([]float64, len(spec.TorqueCurve))
	ys := make([]float64, len(spec.TorqueCurve))
	for i, p := range spec.TorqueCurve {
		xs[i], ys[i] = p.RPM, p.Torque
	}
	m := &EngineModel{spec: spec, peakRPM: peakTorqueRPM(spec.TorqueCurve)}
	if err := m.curve.Fit(xs, ys); err != nil {
		return nil, invalidf("torque curve: %v", err)
	}
	return m, nil
}

// Torque returns the interpolated torque at rpm. Outside the sampled range
// the torque of the nearest boundary sample is returned.
func (m *EngineModel) Torque(rpm float64) float64 {
	if math.IsNaN(rpm) {
		rpm = m.spec.IdleRPM
	}
	return m.curve.Predict(rpm)
}

// PeakTorqueRPM returns the sample RPM with the highest torque. The first
// one wins on ties.
func (m *EngineModel) PeakTorqueRPM() float64 { return m.peakRPM }

// IdleRPM returns the lowest engine speed the model reports.
func (m *EngineModel) IdleRPM() float64 { return m.spec.IdleRPM }

// RedlineRPM returns the highest engine speed the model reports.
func (m *EngineModel) RedlineRPM() float64 { return m.spec.RedlineRPM }

// ClampRPM bounds rpm to [idle, redline].
func (m *EngineModel) ClampRPM(rpm float64) float64 {
	return clamp(rpm, m.spec.IdleRPM, m.spec.RedlineRPM)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
