package dynamics

import "sort"

// Preset names shipped with the simulator.
const (
	PresetCorvetteC5 = "corvette_c5"
	PresetHatchback  = "hatchback"
)

var presets = map[string]VehicleSpec{
	// Corvette C5 figures from "Car Physics for Games" (M. Monster). The drag
	// constant 0.4257 of the source is 0.5 * 1.29 * 0.30 * 2.2.
	PresetCorvetteC5: {
		Name: PresetCorvetteC5,
		Engine: EngineSpec{
			TorqueCurve: []TorquePoint{
				{RPM: 1000, Torque: 450},
				{RPM: 1500, Torque: 480},
				{RPM: 3000, Torque: 490},
				{RPM: 5000, Torque: 500},
				{RPM: 5800, Torque: 450},
			},
			IdleRPM:       1000,
			RedlineRPM:    5800,
			InertiaFactor: 1,
		},
		Transmission: TransmissionSpec{
			GearRatios:   []float64{2.66, 1.78, 1.30, 1.0, 0.74, 0.50},
			FinalDrive:   3.42,
			UpshiftRPM:   5000,
			DownshiftRPM: 2000,
			WheelRadius:  0.33,
			Efficiency:   0.7,
		},
		Body: BodySpec{
			Mass:              1500,
			DragCoefficient:   0.30,
			FrontalArea:       2.2,
			RollingResistance: 0.015,
			AirDensity:        1.29,
			MaxBrakeForce:     12000,
		},
	},
	PresetHatchback: {
		Name: PresetHatchback,
		Engine: EngineSpec{
			TorqueCurve: []TorquePoint{
				{RPM: 800, Torque: 110},
				{RPM: 2000, Torque: 145},
				{RPM: 4000, Torque: 160},
				{RPM: 6000, Torque: 140},
				{RPM: 6500, Torque: 125},
			},
			IdleRPM:       800,
			RedlineRPM:    6500,
			InertiaFactor: 1.05,
		},
		Transmission: TransmissionSpec{
			GearRatios:   []float64{3.55, 1.95, 1.30, 0.97, 0.78},
			FinalDrive:   4.06,
			UpshiftRPM:   5500,
			DownshiftRPM: 2200,
			WheelRadius:  0.30,
			Efficiency:   0.85,
		},
		Body: BodySpec{
			Mass:              1100,
			DragCoefficient:   0.32,
			FrontalArea:       2.1,
			RollingResistance: 0.012,
			AirDensity:        1.225,
			MaxBrakeForce:     9000,
		},
	},
}

// Preset returns a copy of the named calibration.
func Preset(name string) (VehicleSpec, bool) {
	s, ok := presets[name]
	if !ok {
		return VehicleSpec{}, false
	}
	return s.Clone(), true
}

// PresetNames lists the available presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
