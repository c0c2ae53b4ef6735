package pedal

import (
	"sync"
	"time"

	"github.com/kilianp07/carsim/core/model"
)

// DefaultRampRate moves a pedal from released to fully pressed in one second.
const DefaultRampRate = 1.0

// CommandReader reports the digital pedal command currently held.
type CommandReader interface {
	Command() model.PedalCommand
}

// CommandFunc adapts a function to CommandReader.
type CommandFunc func() model.PedalCommand

// Command implements CommandReader.
func (f CommandFunc) Command() model.PedalCommand { return f() }

// Ramp converts a digital command into analog pedal travel. The commanded
// pedal rises by Rate per second while the other one is released at once;
// rolling releases both.
type Ramp struct {
	in   CommandReader
	rate float64
	cur  model.PedalInput
}

// NewRamp returns a Ramp reading in. A non-positive rate uses DefaultRampRate.
func NewRamp(in CommandReader, rate float64) *Ramp {
	if !(rate > 0) {
		rate = DefaultRampRate
	}
	return &Ramp{in: in, rate: rate}
}

// Read implements Source.
func (r *Ramp) Read(dt float64) model.PedalInput {
	if !(dt > 0) {
		dt = 0
	}
	switch r.in.Command() {
	case model.PedalAccelerate:
		r.cur = model.PedalInput{Throttle: unit(r.cur.Throttle + r.rate*dt)}
	case model.PedalBrake:
		r.cur = model.PedalInput{Brake: unit(r.cur.Brake + r.rate*dt)}
	default:
		r.cur = model.PedalInput{}
	}
	return r.cur
}

// KeyLatch keeps a command active for a hold window after each press. It
// bridges terminals and other inputs that only report key presses and
// auto-repeat, never releases.
type KeyLatch struct {
	mu    sync.Mutex
	hold  time.Duration
	now   func() time.Time
	cmd   model.PedalCommand
	until time.Time
}

// NewKeyLatch returns a latch holding each press for hold.
func NewKeyLatch(hold time.Duration) *KeyLatch {
	return &KeyLatch{hold: hold, now: time.Now}
}

// Press activates cmd for the hold window. Pressing PedalRoll releases
// immediately.
func (k *KeyLatch) Press(cmd model.PedalCommand) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cmd = cmd
	k.until = k.now().Add(k.hold)
	if cmd == model.PedalRoll {
		k.until = time.Time{}
	}
}

// Command implements CommandReader.
func (k *KeyLatch) Command() model.PedalCommand {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cmd == model.PedalRoll || !k.now().Before(k.until) {
		return model.PedalRoll
	}
	return k.cmd
}
