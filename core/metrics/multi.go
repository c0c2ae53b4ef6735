package metrics

import "errors"

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []TelemetrySink
}

// NewMultiSink returns a sink forwarding to all provided sinks.
func NewMultiSink(sinks ...TelemetrySink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordVehicleState forwards the sample to every sink and joins their errors.
func (m *MultiSink) RecordVehicleState(ev VehicleStateEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordVehicleState(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordGearShift forwards the shift to sinks implementing GearShiftRecorder.
func (m *MultiSink) RecordGearShift(ev GearShiftEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(GearShiftRecorder); ok {
			if err := r.RecordGearShift(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink implementing io.Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
