package pedal

import (
	"math"

	"github.com/kilianp07/carsim/core/model"
)

// Source yields the pedal positions for the next tick. dt is the time in
// seconds the tick will cover.
type Source interface {
	Read(dt float64) model.PedalInput
}

// SourceFunc adapts a function to Source.
type SourceFunc func(dt float64) model.PedalInput

// Read implements Source.
func (f SourceFunc) Read(dt float64) model.PedalInput { return f(dt) }

// Fixed always returns the same pedal positions.
type Fixed model.PedalInput

// Read implements Source.
func (f Fixed) Read(float64) model.PedalInput { return model.PedalInput(f) }

type firstActive []Source

// FirstActive polls every source in priority order and returns the input of
// the first one with a pressed pedal. All sources are read each tick so
// ramps keep their timing.
func FirstActive(sources ...Source) Source {
	return firstActive(sources)
}

func (f firstActive) Read(dt float64) model.PedalInput {
	var out model.PedalInput
	found := false
	for _, s := range f {
		in := s.Read(dt)
		if !found && !in.Idle() {
			out, found = in, true
		}
	}
	return out
}

// Normalize clamps both pedals to [0,1], mapping NaN to zero.
func Normalize(in model.PedalInput) model.PedalInput {
	return model.PedalInput{Throttle: unit(in.Throttle), Brake: unit(in.Brake)}
}

func unit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}
