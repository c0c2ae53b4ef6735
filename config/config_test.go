package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/carsim/core/dynamics"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `vehicle:
  preset: hatchback
  body:
    mass: 1250
  transmission:
    gear_ratios: [3.2, 1.9, 1.3, 1.0]
simulation:
  tick_hz: 50
  duration_seconds: 12.5
  vehicle_id: "demo"
logging:
  level: debug
metrics:
  prometheus_addr: ":2112"
  sinks:
    - type: "nop"
    - type: "mqtt"
      conf:
        broker: "tcp://localhost:1883"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"vehicle.preset", cfg.Vehicle.Preset, "hatchback"},
		{"vehicle.body.mass", cfg.Vehicle.Body.Mass, 1250.0},
		{"gear count", len(cfg.Vehicle.Transmission.GearRatios), 4},
		{"simulation.tick_hz", cfg.Simulation.TickHz, 50},
		{"simulation.duration_seconds", cfg.Simulation.DurationSeconds, 12.5},
		{"simulation.vehicle_id", cfg.Simulation.VehicleID, "demo"},
		{"simulation.max_step_seconds", cfg.Simulation.MaxStepSeconds, dynamics.DefaultMaxStep},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":2112"},
		{"metrics.sample_interval_ms", cfg.Metrics.SampleIntervalMS, 100},
		{"metrics.sinks", len(cfg.Metrics.Sinks), 2},
		{"metrics.sinks[1].type", cfg.Metrics.Sinks[1].Type, "mqtt"},
		{"metrics.sinks[1].conf.broker", cfg.Metrics.Sinks[1].Conf["broker"], "tcp://localhost:1883"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}

	spec, err := cfg.Vehicle.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 1250.0, spec.Body.Mass)
	assert.Equal(t, []float64{3.2, 1.9, 1.3, 1.0}, spec.Transmission.GearRatios)
	assert.Equal(t, 4.06, spec.Transmission.FinalDrive, "unset fields keep the preset")
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"simulation":{"tick_hz":30},"vehicle":{"preset":"corvette_c5"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Simulation.TickHz)
	assert.Equal(t, time.Second/30, cfg.Simulation.TickInterval())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CARSIM_SIMULATION__TICK_HZ", "120")
	t.Setenv("CARSIM_VEHICLE__PRESET", "hatchback")
	t.Setenv("CARSIM_LOGGING__LEVEL", "warn")
	t.Setenv("CARSIM_METRICS__SAMPLE_INTERVAL_MS", "250")

	path := writeConfig(t, "config.yaml", "simulation:\n  tick_hz: 50\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Simulation.TickHz)
	assert.Equal(t, "hatchback", cfg.Vehicle.Preset)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 250, cfg.Metrics.SampleIntervalMS)

	cfg, err = Load("")
	require.NoError(t, err, "environment only")
	assert.Equal(t, 120, cfg.Simulation.TickHz)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", "x = 1"))
	assert.Error(t, err, "unsupported extension")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "c.yaml", "vehicle:\n  preset: tractor\n"))
	assert.True(t, errors.Is(err, ErrUnknownPreset), "got %v", err)

	_, err = Load(writeConfig(t, "c.yaml", "vehicle:\n  body:\n    mass: -5\n"))
	assert.ErrorIs(t, err, dynamics.ErrInvalidConfig)

	_, err = Load(writeConfig(t, "c.yaml", "simulation:\n  tick_hz: -1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "c.yaml", "logging:\n  level: chatty\n"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, dynamics.PresetCorvetteC5, cfg.Vehicle.Preset)
	assert.Equal(t, 60, cfg.Simulation.TickHz)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Metrics.SampleIntervalMS)
	assert.Zero(t, cfg.Simulation.Duration())
}
