package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/carsim/core/metrics"
)

// PromSink exposes the latest vehicle state as Prometheus metrics.
type PromSink struct {
	speed  *prometheus.GaugeVec
	rpm    *prometheus.GaugeVec
	gear   *prometheus.GaugeVec
	pedal  *prometheus.GaugeVec
	shifts *prometheus.CounterVec
}

// NewPromSink registers vehicle metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	speed, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vehicle_speed_mps",
		Help: "Longitudinal speed of the simulated vehicle in m/s",
	}, []string{"vehicle_id"}))
	if err != nil {
		return nil, err
	}
	rpm, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vehicle_engine_rpm",
		Help: "Engine speed in revolutions per minute",
	}, []string{"vehicle_id"}))
	if err != nil {
		return nil, err
	}
	gear, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vehicle_gear",
		Help: "Engaged gear, 1 is first gear",
	}, []string{"vehicle_id"}))
	if err != nil {
		return nil, err
	}
	pedal, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vehicle_pedal_position",
		Help: "Normalized pedal position",
	}, []string{"vehicle_id", "pedal"}))
	if err != nil {
		return nil, err
	}
	shifts, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vehicle_gear_shifts_total",
		Help: "Total number of gear shifts",
	}, []string{"vehicle_id", "direction"}))
	if err != nil {
		return nil, err
	}
	return &PromSink{speed: speed, rpm: rpm, gear: gear, pedal: pedal, shifts: shifts}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordVehicleState sets the gauges to the sampled state.
func (s *PromSink) RecordVehicleState(ev coremetrics.VehicleStateEvent) error {
	snap := ev.Snapshot
	s.speed.WithLabelValues(ev.VehicleID).Set(snap.Speed)
	s.rpm.WithLabelValues(ev.VehicleID).Set(snap.EngineRPM)
	s.gear.WithLabelValues(ev.VehicleID).Set(float64(snap.GearNumber()))
	s.pedal.WithLabelValues(ev.VehicleID, "throttle").Set(snap.Throttle)
	s.pedal.WithLabelValues(ev.VehicleID, "brake").Set(snap.Brake)
	return nil
}

// RecordGearShift increments the shift counter.
func (s *PromSink) RecordGearShift(ev coremetrics.GearShiftEvent) error {
	s.shifts.WithLabelValues(ev.VehicleID, ev.Direction).Inc()
	return nil
}
