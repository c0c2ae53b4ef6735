// Package dynamics implements the longitudinal vehicle model: an engine
// torque curve (EngineModel), a geared drivetrain with an automatic shift
// rule (Transmission), aerodynamic and rolling resistance (ResistanceModel)
// and the fixed-step Integrator that advances speed, RPM and gear from
// normalized pedal positions.
//
// Vehicle calibration is immutable data described by VehicleSpec. Specs are
// validated once by NewIntegrator; a malformed spec is reported as an error
// wrapping ErrInvalidConfig and nothing in the per-tick path can fail.
package dynamics
