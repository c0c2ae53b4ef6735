package dynamics

// VehicleSpec bundles the calibration of one simulated vehicle.
type VehicleSpec struct {
	Name         string           `json:"name" yaml:"name"`
	Engine       EngineSpec       `json:"engine" yaml:"engine"`
	Transmission TransmissionSpec `json:"transmission" yaml:"transmission"`
	Body         BodySpec         `json:"body" yaml:"body"`
}

// SetDefaults fills optional calibration values. Shift thresholds left at
// zero are derived from the engine curve and the gear spacing.
func (s *VehicleSpec) SetDefaults() {
	s.Engine.SetDefaults()
	s.Body.SetDefaults()
	t := &s.Transmission
	if t.Efficiency == 0 {
		t.Efficiency = 1
	}
	if t.UpshiftRPM == 0 {
		t.UpshiftRPM = peakTorqueRPM(s.Engine.TorqueCurve)
	}
	if t.DownshiftRPM == 0 && t.UpshiftRPM > 0 {
		t.DownshiftRPM = 0.8 * t.UpshiftRPM * narrowestStep(t.GearRatios)
	}
}

// Validate checks every part of the calibration.
func (s VehicleSpec) Validate() error {
	if err := s.Engine.Validate(); err != nil {
		return err
	}
	if err := s.Transmission.Validate(); err != nil {
		return err
	}
	return s.Body.Validate()
}

// Clone returns a deep copy so callers can't mutate shared calibration.
func (s VehicleSpec) Clone() VehicleSpec {
	s.Engine.TorqueCurve = append([]TorquePoint(nil), s.Engine.TorqueCurve...)
	s.Transmission.GearRatios = append([]float64(nil), s.Transmission.GearRatios...)
	return s
}

func peakTorqueRPM(curve []TorquePoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	best := curve[0]
	for _, p := range curve[1:] {
		if p.Torque > best.Torque {
			best = p
		}
	}
	return best.RPM
}

// narrowestStep returns the smallest ratio between consecutive gears, i.e.
// the largest RPM drop an upshift can cause.
func narrowestStep(ratios []float64) float64 {
	step := 1.0
	for i := 1; i < len(ratios); i++ {
		if ratios[i-1] <= 0 {
			continue
		}
		if s := ratios[i] / ratios[i-1]; s < step {
			step = s
		}
	}
	return step
}
