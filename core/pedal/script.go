package pedal

import (
	"time"

	"github.com/kilianp07/carsim/core/model"
)

// Phase holds constant pedal positions for a duration.
type Phase struct {
	Duration time.Duration
	Input    model.PedalInput
}

// Script replays phases in order and releases both pedals once they are
// exhausted.
type Script struct {
	phases  []Phase
	idx     int
	inPhase float64
}

// NewScript returns a Script over phases. Phases without a positive
// duration are dropped.
func NewScript(phases ...Phase) *Script {
	s := &Script{}
	for _, p := range phases {
		if p.Duration > 0 {
			p.Input = Normalize(p.Input)
			s.phases = append(s.phases, p)
		}
	}
	return s
}

// Read implements Source. The input returned is the one of the phase active
// at the start of the tick.
func (s *Script) Read(dt float64) model.PedalInput {
	if s.Done() {
		return model.PedalInput{}
	}
	in := s.phases[s.idx].Input
	if dt > 0 {
		s.inPhase += dt
	}
	for !s.Done() && s.inPhase >= s.phases[s.idx].Duration.Seconds() {
		s.inPhase -= s.phases[s.idx].Duration.Seconds()
		s.idx++
	}
	return in
}

// Done reports whether every phase has played.
func (s *Script) Done() bool { return s.idx >= len(s.phases) }

// Total returns the summed duration of all phases.
func (s *Script) Total() time.Duration {
	var d time.Duration
	for _, p := range s.phases {
		d += p.Duration
	}
	return d
}
