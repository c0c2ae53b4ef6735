package scenarios

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/carsim/core/dynamics"
	"github.com/kilianp07/carsim/core/model"
	"github.com/kilianp07/carsim/core/pedal"
)

// ErrInvalidScenario is returned for scenario files that cannot be run.
var ErrInvalidScenario = errors.New("invalid scenario")

// VehicleDef selects the vehicle driven by a scenario.
type VehicleDef struct {
	Preset string             `yaml:"preset"`
	Body   *dynamics.BodySpec `yaml:"body,omitempty"`
}

// PhaseDef holds pedal positions for a number of seconds.
type PhaseDef struct {
	DurationSeconds float64 `yaml:"duration_seconds"`
	Throttle        float64 `yaml:"throttle"`
	Brake           float64 `yaml:"brake"`
}

func (p PhaseDef) toPhase() pedal.Phase {
	return pedal.Phase{
		Duration: time.Duration(p.DurationSeconds * float64(time.Second)),
		Input:    model.PedalInput{Throttle: p.Throttle, Brake: p.Brake},
	}
}

// Expected lists the checks applied once the phases have played. Speeds are
// in km/h and gears are 1-based, as shown to a driver. Unset checks are
// skipped.
type Expected struct {
	MinFinalSpeedKMH *float64 `yaml:"min_final_speed_kmh,omitempty"`
	MaxFinalSpeedKMH *float64 `yaml:"max_final_speed_kmh,omitempty"`
	FinalGear        *int     `yaml:"final_gear,omitempty"`
	MinTopGear       *int     `yaml:"min_top_gear,omitempty"`
	MinShifts        *int     `yaml:"min_shifts,omitempty"`
}

type Scenario struct {
	Name            string     `yaml:"name"`
	Description     string     `yaml:"description,omitempty"`
	Vehicle         VehicleDef `yaml:"vehicle"`
	TickHz          int        `yaml:"tick_hz,omitempty"`
	InitialSpeedKMH float64    `yaml:"initial_speed_kmh,omitempty"`
	Phases          []PhaseDef `yaml:"phases"`
	Expected        Expected   `yaml:"expected"`
}

// Validate checks that the scenario can be run.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if len(s.Phases) == 0 {
		return fmt.Errorf("%w: %s has no phases", ErrInvalidScenario, s.Name)
	}
	for i, p := range s.Phases {
		if !(p.DurationSeconds > 0) || math.IsInf(p.DurationSeconds, 0) {
			return fmt.Errorf("%w: %s phase %d needs a positive duration", ErrInvalidScenario, s.Name, i+1)
		}
	}
	if s.TickHz < 0 || s.TickHz > 1000 {
		return fmt.Errorf("%w: %s tick_hz %d out of range", ErrInvalidScenario, s.Name, s.TickHz)
	}
	if !(s.InitialSpeedKMH >= 0) {
		return fmt.Errorf("%w: %s initial speed must not be negative", ErrInvalidScenario, s.Name)
	}
	return nil
}

// Script builds the pedal script of the scenario.
func (s *Scenario) Script() *pedal.Script {
	phases := make([]pedal.Phase, len(s.Phases))
	for i, p := range s.Phases {
		phases[i] = p.toPhase()
	}
	return pedal.NewScript(phases...)
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScenario, path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}
