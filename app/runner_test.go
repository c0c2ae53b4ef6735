package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/carsim/config"
	"github.com/kilianp07/carsim/core/factory"
	coremetrics "github.com/kilianp07/carsim/core/metrics"
	"github.com/kilianp07/carsim/core/model"
	"github.com/kilianp07/carsim/core/pedal"
	"github.com/kilianp07/carsim/infra/logger"
)

type memorySink struct {
	mu     sync.Mutex
	states []coremetrics.VehicleStateEvent
	shifts []coremetrics.GearShiftEvent
	closed bool
}

func (m *memorySink) RecordVehicleState(ev coremetrics.VehicleStateEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, ev)
	return nil
}

func (m *memorySink) RecordGearShift(ev coremetrics.GearShiftEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts = append(m.shifts, ev)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func newRunner(t *testing.T, cfg *config.Config, opts ...Option) *Runner {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NopLogger{})}, opts...)
	r, err := New(cfg, opts...)
	require.NoError(t, err)
	return r
}

func TestRunForFullThrottle(t *testing.T) {
	sink := &memorySink{}
	r := newRunner(t, nil, WithInput(pedal.Fixed{Throttle: 1}), WithSink(sink))

	var observed int
	r.OnTick(func(model.Snapshot) { observed++ })
	sum := r.RunFor(500, 0.016)
	require.NoError(t, r.Close())

	assert.Equal(t, 500, sum.Ticks)
	assert.Equal(t, 500, observed)
	assert.Equal(t, 2, sum.Shifts)
	assert.Equal(t, 2, sum.TopGear)
	assert.Equal(t, sum.Final.Speed, sum.MaxSpeed)
	assert.InDelta(t, 8.0, sum.Final.Elapsed, 1e-9)
	assert.NotEmpty(t, sum.RunID)

	require.Len(t, sink.shifts, 2)
	assert.Equal(t, "up", sink.shifts[0].Direction)
	assert.Equal(t, 1, sink.shifts[0].To)
	assert.Equal(t, 2, sink.shifts[1].To)
	assert.NotEmpty(t, sink.states)
	assert.True(t, sink.closed)
}

func TestRunForStopsWithScript(t *testing.T) {
	script := pedal.NewScript(
		pedal.Phase{Duration: time.Second, Input: model.PedalInput{Throttle: 1}},
		pedal.Phase{Duration: time.Second, Input: model.PedalInput{Brake: 1}},
	)
	r := newRunner(t, nil, WithInput(script), WithSink(coremetrics.NopSink{}))
	defer r.Close()

	sum := r.RunFor(10000, 0.01)
	assert.InDelta(t, 200, sum.Ticks, 1)
	assert.Equal(t, 0, sum.Final.Gear)
	assert.Less(t, sum.Final.Speed, sum.MaxSpeed, "braking phase slowed the car")
}

func TestRunStopsAfterDuration(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.TickHz = 200
	cfg.Simulation.DurationSeconds = 0.1
	r := newRunner(t, cfg, WithInput(pedal.Fixed{Throttle: 1}))
	defer r.Close()

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
	sum := r.Summary()
	assert.Positive(t, sum.Ticks)
	assert.GreaterOrEqual(t, sum.Final.Elapsed, 0.1)
	assert.Positive(t, sum.Final.Speed)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newRunner(t, nil)
	defer r.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, r.Run(ctx))
	assert.Zero(t, r.Summary().Final.Speed, "no pedal input")
}

func TestEventsCarryVehicleAndClock(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cfg := config.Default()
	cfg.Simulation.VehicleID = "c5"
	r := newRunner(t, cfg, WithClock(func() time.Time { return at }), WithSink(coremetrics.NopSink{}))
	defer r.Close()

	sub := r.States().Subscribe()
	r.Step(0.016)
	ev := <-sub
	assert.Equal(t, "c5", ev.VehicleID)
	assert.Equal(t, at, ev.Time)
	assert.Equal(t, "c5", r.VehicleID())
	assert.InDelta(t, 0.016, ev.Snapshot.Elapsed, 1e-12)
}

func TestNewErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Vehicle.Preset = "tractor"
	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrUnknownPreset)

	cfg = config.Default()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "missing"}}
	_, err = New(cfg, WithLogger(logger.NopLogger{}))
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	r := newRunner(t, nil, WithSink(&memorySink{}))
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	r.Step(0.016)
}

func TestFrameSecondsCapsStalls(t *testing.T) {
	last := time.Unix(100, 0)
	assert.InDelta(t, 0.016, frameSeconds(last.Add(16*time.Millisecond), last), 1e-12)
	assert.Equal(t, 1.0, frameSeconds(last.Add(5*time.Second), last))
}
