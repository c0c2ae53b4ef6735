package metrics

import "github.com/kilianp07/carsim/core/factory"

var sinkRegistry = factory.NewRegistry[TelemetrySink]()

// RegisterTelemetrySink adds a telemetry sink factory identified by name.
func RegisterTelemetrySink(name string, f factory.Factory[TelemetrySink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink type names.
func SinkTypes() []string { return sinkRegistry.Types() }

// NewTelemetrySink creates a TelemetrySink from the provided configuration.
func NewTelemetrySink(cfgs []factory.ModuleConfig) (TelemetrySink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]TelemetrySink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}
