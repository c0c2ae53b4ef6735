package dynamics

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 0.016

func newCorvette(t *testing.T, opts ...Option) *Integrator {
	t.Helper()
	spec, ok := Preset(PresetCorvetteC5)
	require.True(t, ok)
	in, err := NewIntegrator(spec, opts...)
	require.NoError(t, err)
	return in
}

func TestIntegratorStartsAtRest(t *testing.T) {
	in := newCorvette(t)
	s := in.CurrentState()
	assert.Equal(t, 0.0, s.Speed)
	assert.Equal(t, 1000.0, s.EngineRPM)
	assert.Equal(t, 0, s.Gear)
	assert.Equal(t, 0.0, s.Throttle)
	assert.Equal(t, 0.0, s.Brake)
}

func TestNewIntegratorRejectsInvalidSpec(t *testing.T) {
	cases := map[string]func(*VehicleSpec){
		"empty gear ratios":    func(s *VehicleSpec) { s.Transmission.GearRatios = nil },
		"zero wheel radius":    func(s *VehicleSpec) { s.Transmission.WheelRadius = 0 },
		"negative mass":        func(s *VehicleSpec) { s.Body.Mass = -1 },
		"one torque sample":    func(s *VehicleSpec) { s.Engine.TorqueCurve = s.Engine.TorqueCurve[:1] },
		"unordered curve":      func(s *VehicleSpec) { s.Engine.TorqueCurve[4].RPM = 100 },
		"negative brake force": func(s *VehicleSpec) { s.Body.MaxBrakeForce = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			spec, _ := Preset(PresetCorvetteC5)
			mutate(&spec)
			in, err := NewIntegrator(spec)
			assert.Nil(t, in)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestVehicleSpecDefaults(t *testing.T) {
	spec, _ := Preset(PresetCorvetteC5)
	spec.Transmission.UpshiftRPM = 0
	spec.Transmission.DownshiftRPM = 0
	spec.Transmission.Efficiency = 0
	spec.Engine.InertiaFactor = 0
	spec.SetDefaults()
	assert.Equal(t, 5000.0, spec.Transmission.UpshiftRPM)
	assert.InDelta(t, 0.8*5000*1.78/2.66, spec.Transmission.DownshiftRPM, 1e-9)
	assert.Equal(t, 1.0, spec.Transmission.Efficiency)
	assert.Equal(t, 1.0, spec.Engine.InertiaFactor)
	assert.NoError(t, spec.Validate())
}

func TestTickClampsPedals(t *testing.T) {
	in := newCorvette(t)
	s := in.Tick(frame, 3, -2)
	assert.Equal(t, 1.0, s.Throttle)
	assert.Equal(t, 0.0, s.Brake)

	s = in.Tick(frame, math.NaN(), 7)
	assert.Equal(t, 0.0, s.Throttle)
	assert.Equal(t, 1.0, s.Brake)
}

func TestTickZeroDurationOnlyStoresPedals(t *testing.T) {
	in := newCorvette(t)
	in.Reset(25)
	before := in.CurrentState()

	after := in.Tick(0, 0.4, 0.2)
	assert.Equal(t, before.Speed, after.Speed)
	assert.Equal(t, before.EngineRPM, after.EngineRPM)
	assert.Equal(t, before.Gear, after.Gear)
	assert.Equal(t, before.Elapsed, after.Elapsed)
	assert.Equal(t, 0.4, after.Throttle)
	assert.Equal(t, 0.2, after.Brake)
}

func TestTickFloorsNegativeStep(t *testing.T) {
	in := newCorvette(t)
	s := in.Tick(-1, 1, 0)
	assert.InDelta(t, MinStep, s.Elapsed, 1e-15)
	s = in.Tick(math.NaN(), 1, 0)
	assert.InDelta(t, 2*MinStep, s.Elapsed, 1e-15)
	assert.Greater(t, s.Speed, 0.0)
}

func TestTickFloorsInfiniteStep(t *testing.T) {
	in := newCorvette(t)
	s := in.Tick(math.Inf(1), 1, 0)
	assert.InDelta(t, MinStep, s.Elapsed, 1e-15)
}

func TestTickKeepsTinySteps(t *testing.T) {
	in := newCorvette(t)
	s := in.Tick(1e-9, 1, 0)
	assert.Equal(t, 1e-9, s.Elapsed)
}

func TestTickIntegratesLongFrames(t *testing.T) {
	in := newCorvette(t)
	s := in.Tick(30, 1, 0)
	assert.InDelta(t, 30, s.Elapsed, 1e-9)
	assert.Greater(t, s.Speed, 20.0)
}

func TestSpeedNeverNegative(t *testing.T) {
	in := newCorvette(t)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		dt := rng.Float64() * 0.5
		s := in.Tick(dt, rng.Float64(), rng.Float64()*2)
		require.GreaterOrEqual(t, s.Speed, 0.0, "tick %d", i)
		require.GreaterOrEqual(t, s.EngineRPM, 1000.0)
		require.LessOrEqual(t, s.EngineRPM, 5800.0)
		require.GreaterOrEqual(t, s.Gear, 0)
		require.Less(t, s.Gear, 6)
	}
}

func TestCoastingNeverSpeedsUp(t *testing.T) {
	in := newCorvette(t)
	prev := in.Reset(45).Speed
	for i := 0; i < 20000; i++ {
		s := in.Tick(frame, 0, 0)
		require.LessOrEqual(t, s.Speed, prev, "tick %d", i)
		prev = s.Speed
	}
}

func TestEulerStepIsFirstOrder(t *testing.T) {
	delta := func(dt float64) float64 {
		in := newCorvette(t)
		v0 := in.Reset(20).Speed
		return math.Abs(in.Tick(dt, 1, 0).Speed - v0)
	}
	d1 := delta(0.001)
	d2 := delta(0.002)
	d4 := delta(0.004)
	require.Greater(t, d1, 0.0)
	assert.InDelta(t, 2, d2/d1, 1e-9)
	assert.InDelta(t, 4, d4/d1, 1e-9)
}

func TestFullThrottleFromRest(t *testing.T) {
	in := newCorvette(t)
	tr := in.Transmission()
	prev := in.CurrentState()
	topGear := 0
	for i := 0; i < 2500; i++ {
		s := in.Tick(frame, 1, 0)
		require.Greater(t, s.Speed, prev.Speed, "speed must rise at tick %d", i)

		_, rpmInOldGear := tr.EngineRPMFor(s.Speed, prev.Gear)
		switch s.Shifted {
		case 1:
			assert.Equal(t, prev.Gear+1, s.Gear)
			assert.GreaterOrEqual(t, rpmInOldGear, 5000.0, "early upshift at tick %d", i)
		case 0:
			assert.Equal(t, prev.Gear, s.Gear)
			assert.Less(t, rpmInOldGear, 5000.0, "missed upshift at tick %d", i)
		default:
			t.Fatalf("unexpected downshift at tick %d", i)
		}
		if s.Gear > topGear {
			topGear = s.Gear
		}
		prev = s
	}
	assert.Equal(t, 4, topGear)

	// Keep the throttle pinned until drive force and resistance balance.
	var last float64
	for i := 0; i < 20000; i++ {
		last = in.Tick(frame, 1, 0).Speed
	}
	s := in.CurrentState()
	assert.Equal(t, 5, s.Gear)
	assert.InDelta(t, 60.47, last, 0.5)
	assert.InDelta(t, 0, in.LastForces().Net, 1)
	assert.InDelta(t, last, in.Tick(frame, 1, 0).Speed, 1e-3)
}

func TestFullBrakeStopsWithoutOvershoot(t *testing.T) {
	in := newCorvette(t)
	prev := in.Reset(30)
	require.Equal(t, 2, prev.Gear)

	stopped := -1
	for i := 0; i < 300; i++ {
		s := in.Tick(frame, 0, 1)
		require.GreaterOrEqual(t, s.Speed, 0.0)
		require.LessOrEqual(t, s.Speed, prev.Speed)
		require.LessOrEqual(t, prev.Gear-s.Gear, 1, "skipped a gear at tick %d", i)
		prev = s
		if s.Speed == 0 {
			stopped = i
			break
		}
	}
	require.NotEqual(t, -1, stopped, "vehicle did not stop")
	assert.Equal(t, 0, prev.Gear)

	for i := 0; i < 200; i++ {
		s := in.Tick(frame, 0, 1)
		require.Equal(t, 0.0, s.Speed)
		require.Equal(t, 1000.0, s.EngineRPM)
	}
	assert.Equal(t, 0.0, in.LastForces().Brake)
}

func TestFullBrakeHoldsAgainstThrottleAtRest(t *testing.T) {
	in := newCorvette(t)
	for i := 0; i < 100; i++ {
		s := in.Tick(frame, 1, 1)
		require.Equal(t, 0.0, s.Speed, "tick %d", i)
		require.Equal(t, 0, s.Gear)
	}
	f := in.LastForces()
	assert.Greater(t, f.Drive, 0.0)
	assert.Equal(t, f.Drive, f.Brake)
	assert.Equal(t, 0.0, f.Net)
}

func TestLightBrakeAtRestOnlyReducesDrive(t *testing.T) {
	in := newCorvette(t)
	s := in.Tick(frame, 1, 0.1)
	f := in.LastForces()
	assert.Equal(t, 1200.0, f.Brake)
	assert.InDelta(t, f.Drive-1200, f.Net, 1e-9)
	assert.Greater(t, s.Speed, 0.0)
}

func TestBrakeOpposesThrottle(t *testing.T) {
	in := newCorvette(t)
	v0 := in.Reset(20).Speed
	s := in.Tick(frame, 1, 1)
	f := in.LastForces()
	assert.Equal(t, 12000.0, f.Brake)
	assert.Greater(t, f.Drive, 0.0)
	assert.Less(t, s.Speed, v0)
}

func TestLongFrameShiftsOnce(t *testing.T) {
	spec, _ := Preset(PresetCorvetteC5)
	spec.Transmission.GearRatios = []float64{2.66, 2.6, 2.55, 2.5}
	spec.Transmission.UpshiftRPM = 800
	spec.Transmission.DownshiftRPM = 100
	in, err := NewIntegrator(spec)
	require.NoError(t, err)

	s := in.Tick(1, 1, 0)
	assert.Equal(t, 1, s.Shifted)
	assert.Equal(t, 1, s.Gear)

	s = in.Tick(0.05, 1, 0)
	assert.Equal(t, 1, s.Shifted)
	assert.Equal(t, 2, s.Gear)
}

func TestWithMaxStep(t *testing.T) {
	coarse := newCorvette(t, WithMaxStep(0.5))
	fine := newCorvette(t, WithMaxStep(0.001))
	a := coarse.Tick(0.5, 1, 0)
	b := fine.Tick(0.5, 1, 0)
	assert.InDelta(t, a.Elapsed, b.Elapsed, 1e-12)
	assert.NotEqual(t, a.Speed, b.Speed)

	ignored := newCorvette(t, WithMaxStep(0))
	assert.Equal(t, DefaultMaxStep, ignored.maxStep)
}

func TestResetPicksGearAndClearsClock(t *testing.T) {
	in := newCorvette(t)
	in.Tick(0.5, 1, 0)
	s := in.Reset(30)
	assert.Equal(t, 2, s.Gear)
	assert.Equal(t, 0.0, s.Elapsed)
	assert.InDelta(t, 3859.65, s.EngineRPM, 0.01)

	s = in.Reset(-4)
	assert.Equal(t, 0.0, s.Speed)
	assert.Equal(t, 0, s.Gear)
}

func TestConcurrentTickAndRead(t *testing.T) {
	in := newCorvette(t)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				in.Tick(frame, 1, 0)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = in.CurrentState()
			}
		}()
	}
	wg.Wait()
	assert.InDelta(t, 4*200*frame, in.CurrentState().Elapsed, 1e-9)
}

func TestIntegratorsAreIndependent(t *testing.T) {
	a := newCorvette(t)
	b := newCorvette(t)
	a.Tick(frame, 1, 0)
	assert.Greater(t, a.CurrentState().Speed, 0.0)
	assert.Equal(t, 0.0, b.CurrentState().Speed)
}
