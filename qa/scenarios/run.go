package scenarios

import (
	"fmt"
	"math"

	"github.com/kilianp07/carsim/app"
	"github.com/kilianp07/carsim/config"
	coremetrics "github.com/kilianp07/carsim/core/metrics"
	"github.com/kilianp07/carsim/infra/logger"
)

// Result is the outcome of a scenario run.
type Result struct {
	Scenario string
	Summary  app.Summary
	Failures []string
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool { return len(r.Failures) == 0 }

// Run drives the scenario headless with fixed steps and checks its
// expectations. A nil sink discards telemetry.
func Run(sc *Scenario, sink coremetrics.TelemetrySink, log logger.Logger) (Result, error) {
	if err := sc.Validate(); err != nil {
		return Result{}, err
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	cfg := config.Default()
	cfg.Simulation.VehicleID = sc.Name
	if sc.TickHz > 0 {
		cfg.Simulation.TickHz = sc.TickHz
	}
	cfg.Vehicle.Preset = sc.Vehicle.Preset
	if sc.Vehicle.Body != nil {
		cfg.Vehicle.Body = *sc.Vehicle.Body
	}
	cfg.SetDefaults()

	script := sc.Script()
	r, err := app.New(cfg, app.WithInput(script), app.WithSink(sink), app.WithLogger(log))
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Warnf("scenario %s close: %v", sc.Name, err)
		}
	}()
	if sc.InitialSpeedKMH > 0 {
		r.Integrator.Reset(sc.InitialSpeedKMH / 3.6)
	}

	dt := 1 / float64(cfg.Simulation.TickHz)
	n := int(math.Ceil(script.Total().Seconds()/dt)) + 2
	sum := r.RunFor(n, dt)
	res := Result{Scenario: sc.Name, Summary: sum, Failures: sc.Expected.check(sum)}
	log.Infow("scenario finished", map[string]any{
		"scenario": sc.Name,
		"passed":   res.Passed(),
		"final":    sum.Final.String(),
		"top_gear": sum.TopGear + 1,
	})
	return res, nil
}

func (e Expected) check(s app.Summary) []string {
	var out []string
	kmh := s.Final.SpeedKMH()
	if e.MinFinalSpeedKMH != nil && kmh < *e.MinFinalSpeedKMH {
		out = append(out, fmt.Sprintf("final speed %.1f km/h below %.1f", kmh, *e.MinFinalSpeedKMH))
	}
	if e.MaxFinalSpeedKMH != nil && kmh > *e.MaxFinalSpeedKMH {
		out = append(out, fmt.Sprintf("final speed %.1f km/h above %.1f", kmh, *e.MaxFinalSpeedKMH))
	}
	if e.FinalGear != nil && s.Final.GearNumber() != *e.FinalGear {
		out = append(out, fmt.Sprintf("final gear %d, expected %d", s.Final.GearNumber(), *e.FinalGear))
	}
	if e.MinTopGear != nil && s.TopGear+1 < *e.MinTopGear {
		out = append(out, fmt.Sprintf("top gear %d below %d", s.TopGear+1, *e.MinTopGear))
	}
	if e.MinShifts != nil && s.Shifts < *e.MinShifts {
		out = append(out, fmt.Sprintf("%d shifts, expected at least %d", s.Shifts, *e.MinShifts))
	}
	return out
}
