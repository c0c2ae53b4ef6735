package config

import (
	"fmt"
	"strings"

	"github.com/kilianp07/carsim/core/dynamics"
)

// VehicleConfig selects a preset and overrides parts of its calibration.
// Zero-valued fields keep the preset value; a non-empty torque curve or gear
// list replaces the preset one entirely.
type VehicleConfig struct {
	Preset       string                    `json:"preset"`
	Engine       dynamics.EngineSpec       `json:"engine"`
	Transmission dynamics.TransmissionSpec `json:"transmission"`
	Body         dynamics.BodySpec         `json:"body"`
}

// SetDefaults selects the Corvette C5 when no preset is named.
func (c *VehicleConfig) SetDefaults() {
	if c.Preset == "" {
		c.Preset = dynamics.PresetCorvetteC5
	}
}

// Validate checks that the merged calibration is usable.
func (c VehicleConfig) Validate() error {
	_, err := c.Resolve()
	return err
}

// Resolve merges the overrides into the preset and returns the validated
// vehicle spec.
func (c VehicleConfig) Resolve() (dynamics.VehicleSpec, error) {
	name := c.Preset
	if name == "" {
		name = dynamics.PresetCorvetteC5
	}
	spec, ok := dynamics.Preset(name)
	if !ok {
		return dynamics.VehicleSpec{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPreset, name, strings.Join(dynamics.PresetNames(), ", "))
	}

	e := &spec.Engine
	if len(c.Engine.TorqueCurve) > 0 {
		e.TorqueCurve = append([]dynamics.TorquePoint(nil), c.Engine.TorqueCurve...)
	}
	override(&e.IdleRPM, c.Engine.IdleRPM)
	override(&e.RedlineRPM, c.Engine.RedlineRPM)
	override(&e.InertiaFactor, c.Engine.InertiaFactor)

	tr := &spec.Transmission
	if len(c.Transmission.GearRatios) > 0 {
		tr.GearRatios = append([]float64(nil), c.Transmission.GearRatios...)
	}
	if len(c.Engine.TorqueCurve) > 0 || len(c.Transmission.GearRatios) > 0 {
		// Preset shift points only suit the preset's curve and gearbox.
		tr.UpshiftRPM, tr.DownshiftRPM = 0, 0
	}
	override(&tr.FinalDrive, c.Transmission.FinalDrive)
	override(&tr.UpshiftRPM, c.Transmission.UpshiftRPM)
	override(&tr.DownshiftRPM, c.Transmission.DownshiftRPM)
	override(&tr.WheelRadius, c.Transmission.WheelRadius)
	override(&tr.Efficiency, c.Transmission.Efficiency)

	b := &spec.Body
	override(&b.Mass, c.Body.Mass)
	override(&b.DragCoefficient, c.Body.DragCoefficient)
	override(&b.FrontalArea, c.Body.FrontalArea)
	override(&b.RollingResistance, c.Body.RollingResistance)
	override(&b.AirDensity, c.Body.AirDensity)
	override(&b.MaxBrakeForce, c.Body.MaxBrakeForce)

	spec.SetDefaults()
	if err := spec.Validate(); err != nil {
		return dynamics.VehicleSpec{}, err
	}
	return spec, nil
}

func override(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
