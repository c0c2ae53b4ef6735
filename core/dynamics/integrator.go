package dynamics

import (
	"math"
	"sync"

	"github.com/kilianp07/carsim/core/model"
)

const (
	// MinStep is the timestep, in seconds, integrated in place of a
	// non-positive or non-finite frame time.
	MinStep = 1e-6
	// DefaultMaxStep is the largest single Euler step. Longer frames are
	// split into equal substeps.
	DefaultMaxStep = 0.05
)

// Forces is the force balance computed during the most recent step, in N.
type Forces struct {
	Drive        float64
	Brake        float64
	Resistance   float64
	Net          float64
	Acceleration float64 // m/s²
}

// Option configures an Integrator.
type Option func(*Integrator)

// WithMaxStep overrides the largest Euler substep.
func WithMaxStep(seconds float64) Option {
	return func(in *Integrator) {
		if finite(seconds) && seconds >= MinStep {
			in.maxStep = seconds
		}
	}
}

// Integrator advances a VehicleState in fixed Euler steps. It is the single
// writer of that state; Tick and CurrentState serialize on an internal lock
// so hosts may call them from different goroutines.
type Integrator struct {
	mu sync.Mutex

	spec       VehicleSpec
	engine     *EngineModel
	trans      *Transmission
	resistance *ResistanceModel
	mass       float64
	maxStep    float64

	state   model.VehicleState
	elapsed float64
	forces  Forces
}

// NewIntegrator validates spec and returns an integrator at rest in first
// gear with the engine at idle.
func NewIntegrator(spec VehicleSpec, opts ...Option) (*Integrator, error) {
	spec = spec.Clone()
	spec.SetDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	engine, err := NewEngineModel(spec.Engine)
	if err != nil {
		return nil, err
	}
	trans, err := NewTransmission(spec.Transmission, engine)
	if err != nil {
		return nil, err
	}
	in := &Integrator{
		spec:       spec,
		engine:     engine,
		trans:      trans,
		resistance: NewResistanceModel(spec.Body),
		mass:       spec.Body.Mass * spec.Engine.InertiaFactor,
		maxStep:    DefaultMaxStep,
	}
	for _, opt := range opts {
		opt(in)
	}
	in.state = model.VehicleState{EngineRPM: engine.IdleRPM()}
	return in, nil
}

// Spec returns a copy of the validated, defaulted calibration.
func (in *Integrator) Spec() VehicleSpec { return in.spec.Clone() }

// Engine returns the engine model.
func (in *Integrator) Engine() *EngineModel { return in.engine }

// Transmission returns the transmission model.
func (in *Integrator) Transmission() *Transmission { return in.trans }

// Resistance returns the resistance model.
func (in *Integrator) Resistance() *ResistanceModel { return in.resistance }

// Tick stores the pedal positions and advances the simulation by dt seconds.
// Pedal values are clamped to [0,1]. A dt of exactly zero only updates the
// stored pedals; a negative, NaN or infinite dt advances by MinStep. Long
// frames are integrated in full. At most one gear change happens per tick
// even when dt is split into several substeps.
func (in *Integrator) Tick(dt, throttle, brake float64) model.Snapshot {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.state.Throttle = unit(throttle)
	in.state.Brake = unit(brake)
	if dt == 0 {
		return in.snapshot(ShiftNone)
	}
	if !(dt > 0) || math.IsInf(dt, 1) {
		dt = MinStep
	}
	n := int(math.Ceil(dt / in.maxStep))
	h := dt / float64(n)
	shifted := ShiftNone
	for i := 0; i < n; i++ {
		if d := in.step(h, shifted == ShiftNone); d != ShiftNone {
			shifted = d
		}
	}
	return in.snapshot(shifted)
}

// CurrentState returns the latest state without advancing the simulation.
func (in *Integrator) CurrentState() model.Snapshot {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.snapshot(ShiftNone)
}

// LastForces returns the force balance of the most recent step.
func (in *Integrator) LastForces() Forces {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.forces
}

// Reset places the vehicle at speed in the lowest gear that keeps the engine
// below the upshift threshold, with both pedals released.
func (in *Integrator) Reset(speed float64) model.Snapshot {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !finite(speed) || speed < 0 {
		speed = 0
	}
	gear := in.trans.GearFor(speed)
	rpm, _ := in.trans.EngineRPMFor(speed, gear)
	in.state = model.VehicleState{Speed: speed, EngineRPM: rpm, Gear: gear}
	in.elapsed = 0
	in.forces = Forces{}
	return in.snapshot(ShiftNone)
}

func (in *Integrator) step(h float64, allowShift bool) ShiftDirection {
	s := &in.state

	rpm, _ := in.trans.EngineRPMFor(s.Speed, s.Gear)
	drive := in.trans.WheelForce(in.engine.Torque(rpm), s.Gear) * s.Throttle
	brake := in.spec.Body.MaxBrakeForce * s.Brake
	if s.Speed == 0 {
		// At rest the brake holds the car against the drive force and no more.
		brake = math.Min(brake, drive)
	}
	resist := in.resistance.Force(s.Speed)
	net := drive - brake - resist
	acc := net / in.mass
	s.Speed = math.Max(0, s.Speed+acc*h)
	in.elapsed += h
	in.forces = Forces{Drive: drive, Brake: brake, Resistance: resist, Net: net, Acceleration: acc}

	rpm, unclamped := in.trans.EngineRPMFor(s.Speed, s.Gear)
	dir := ShiftNone
	if allowShift {
		d := in.trans.DecideShift(s.Gear, unclamped)
		if d.Direction != ShiftNone {
			s.Gear = d.Gear
			dir = d.Direction
			rpm, _ = in.trans.EngineRPMFor(s.Speed, s.Gear)
		}
	}
	s.EngineRPM = rpm
	return dir
}

func (in *Integrator) snapshot(d ShiftDirection) model.Snapshot {
	return model.Snapshot{VehicleState: in.state, Elapsed: in.elapsed, Shifted: d.Delta()}
}

func unit(v float64) float64 { return clamp(v, 0, 1) }
