package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/carsim/config"
	"github.com/kilianp07/carsim/core/dynamics"
	"github.com/kilianp07/carsim/core/events"
	coremetrics "github.com/kilianp07/carsim/core/metrics"
	"github.com/kilianp07/carsim/core/model"
	"github.com/kilianp07/carsim/core/pedal"
	"github.com/kilianp07/carsim/infra/logger"
	"github.com/kilianp07/carsim/infra/metrics"
	_ "github.com/kilianp07/carsim/infra/mqtt" // registers the mqtt sink
	"github.com/kilianp07/carsim/internal/eventbus"
)

const busBuffer = 256

// maxFrame caps the wall-clock time a single real-time tick integrates so a
// host that stalled resumes without a catch-up burst.
const maxFrame = time.Second

// Summary aggregates what happened during a run.
type Summary struct {
	RunID    string
	Ticks    int
	Shifts   int
	TopGear  int
	MaxSpeed float64
	Final    model.Snapshot
}

// Runner drives one vehicle integrator from a pedal source and publishes
// every tick on the event bus.
type Runner struct {
	Integrator *dynamics.Integrator

	vehicleID string
	input     pedal.Source
	tick      time.Duration
	duration  time.Duration
	sample    time.Duration
	promAddr  string
	sink      coremetrics.TelemetrySink
	states    *eventbus.TypedBus[events.StateEvent]
	shifts    *eventbus.TypedBus[events.ShiftEvent]
	log       logger.Logger
	now       func() time.Time
	observers []func(model.Snapshot)
	headless  bool

	collectOnce sync.Once
	collected   <-chan struct{}
	closeOnce   sync.Once

	mu      sync.Mutex
	summary Summary
}

// Option customizes a Runner.
type Option func(*Runner)

// WithInput sets the pedal source. The default releases both pedals.
func WithInput(src pedal.Source) Option {
	return func(r *Runner) { r.input = src }
}

// WithSink replaces the sinks built from the metrics configuration.
func WithSink(s coremetrics.TelemetrySink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithClock overrides the wall clock used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner from the configuration.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	spec, err := cfg.Vehicle.Resolve()
	if err != nil {
		return nil, fmt.Errorf("vehicle: %w", err)
	}
	integ, err := dynamics.NewIntegrator(spec, dynamics.WithMaxStep(cfg.Simulation.MaxStepSeconds))
	if err != nil {
		return nil, fmt.Errorf("integrator: %w", err)
	}
	r := &Runner{
		Integrator: integ,
		vehicleID:  cfg.Simulation.VehicleID,
		input:      pedal.Fixed{},
		tick:       cfg.Simulation.TickInterval(),
		duration:   cfg.Simulation.Duration(),
		sample:     time.Duration(cfg.Metrics.SampleIntervalMS) * time.Millisecond,
		promAddr:   cfg.Metrics.PrometheusAddr,
		states:     eventbus.NewTyped[events.StateEvent](busBuffer),
		shifts:     eventbus.NewTyped[events.ShiftEvent](busBuffer),
		now:        time.Now,
		summary:    Summary{RunID: uuid.NewString()},
	}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = logger.New("runner")
	}
	if r.sink == nil {
		sink, err := coremetrics.NewTelemetrySink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("telemetry sink: %w", err)
		}
		r.sink = sink
	}
	return r, nil
}

// OnTick registers fn to receive every snapshot. Observers run on the tick
// goroutine and must not block.
func (r *Runner) OnTick(fn func(model.Snapshot)) {
	r.observers = append(r.observers, fn)
}

// States exposes the state event bus.
func (r *Runner) States() *eventbus.TypedBus[events.StateEvent] { return r.states }

// Shifts exposes the gear shift event bus.
func (r *Runner) Shifts() *eventbus.TypedBus[events.ShiftEvent] { return r.shifts }

// VehicleID returns the identifier stamped on events.
func (r *Runner) VehicleID() string { return r.vehicleID }

// Summary returns the run statistics so far.
func (r *Runner) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

func (r *Runner) startCollector() {
	r.collectOnce.Do(func() {
		r.collected = metrics.StartEventCollector(context.Background(), r.states, r.shifts, r.sink, r.sample, r.log)
	})
}

// Step reads the pedals and advances the vehicle by dt seconds.
func (r *Runner) Step(dt float64) model.Snapshot {
	r.startCollector()
	in := r.input.Read(dt)
	snap := r.Integrator.Tick(dt, in.Throttle, in.Brake)
	at := r.now()

	state := events.StateEvent{
		VehicleID: r.vehicleID,
		Snapshot:  snap,
		Forces:    r.Integrator.LastForces(),
		Time:      at,
	}
	shift, shifted := events.ShiftFrom(r.vehicleID, snap, at)
	if r.headless {
		r.states.Deliver(state)
		if shifted {
			r.shifts.Deliver(shift)
		}
	} else {
		r.states.Publish(state)
		if shifted {
			r.shifts.Publish(shift)
		}
	}
	if shifted {
		r.log.Debugw("gear shift", map[string]any{
			"vehicle_id": r.vehicleID,
			"from":       shift.From + 1,
			"to":         shift.To + 1,
			"speed_kmh":  snap.SpeedKMH(),
			"rpm":        snap.EngineRPM,
		})
	}

	r.mu.Lock()
	s := &r.summary
	s.Ticks++
	if snap.Shifted != 0 {
		s.Shifts++
	}
	if snap.Gear > s.TopGear {
		s.TopGear = snap.Gear
	}
	if snap.Speed > s.MaxSpeed {
		s.MaxSpeed = snap.Speed
	}
	s.Final = snap
	r.mu.Unlock()

	for _, fn := range r.observers {
		fn(snap)
	}
	return snap
}

// RunFor advances n fixed steps of dt seconds without waiting on the wall
// clock. It stops early when a scripted input is exhausted. Events are
// delivered to every subscriber instead of being dropped when one lags.
func (r *Runner) RunFor(n int, dt float64) Summary {
	r.headless = true
	defer func() { r.headless = false }()
	for i := 0; i < n && !r.inputDone(); i++ {
		r.Step(dt)
	}
	return r.Summary()
}

// Run ticks in real time at the configured rate until ctx is canceled, the
// configured duration of simulated time has elapsed or a scripted input is
// exhausted. Each tick integrates the wall-clock time measured since the
// previous one.
func (r *Runner) Run(ctx context.Context) error {
	if r.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, r.promAddr); err != nil {
				r.log.Errorf("prom server: %v", err)
			}
		}()
	}
	r.log.Infow("simulation started", map[string]any{
		"run_id":     r.summary.RunID,
		"vehicle_id": r.vehicleID,
		"vehicle":    r.Integrator.Spec().Name,
		"tick":       r.tick.String(),
	})

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.logSummary("interrupted")
			return nil
		case t := <-ticker.C:
			dt := frameSeconds(t, last)
			last = t
			snap := r.Step(dt)
			if r.duration > 0 && snap.Elapsed >= r.duration.Seconds() {
				r.logSummary("duration reached")
				return nil
			}
			if r.inputDone() {
				r.logSummary("script finished")
				return nil
			}
		}
	}
}

// frameSeconds returns the wall-clock time between two ticks, capped to
// maxFrame.
func frameSeconds(now, last time.Time) float64 {
	d := now.Sub(last)
	if d > maxFrame {
		d = maxFrame
	}
	return d.Seconds()
}

func (r *Runner) inputDone() bool {
	d, ok := r.input.(interface{ Done() bool })
	return ok && d.Done()
}

func (r *Runner) logSummary(reason string) {
	s := r.Summary()
	r.log.Infow("simulation stopped", map[string]any{
		"run_id":    s.RunID,
		"reason":    reason,
		"ticks":     s.Ticks,
		"shifts":    s.Shifts,
		"top_gear":  s.TopGear + 1,
		"max_kmh":   s.MaxSpeed * 3.6,
		"final":     s.Final.String(),
		"dropped":   r.states.Dropped() + r.shifts.Dropped(),
		"elapsed_s": s.Final.Elapsed,
	})
}

// Close stops the telemetry collector after it drained the buses and
// closes the sinks.
func (r *Runner) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.collectOnce.Do(func() {})
		r.states.Close()
		r.shifts.Close()
		if r.collected != nil {
			<-r.collected
		}
		if c, ok := r.sink.(interface{ Close() error }); ok {
			err = c.Close()
		}
	})
	return err
}
