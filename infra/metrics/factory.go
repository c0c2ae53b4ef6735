package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/carsim/core/factory"
	coremetrics "github.com/kilianp07/carsim/core/metrics"
)

// init registers built-in telemetry sinks.
func init() {
	_ = coremetrics.RegisterTelemetrySink("nop", func(map[string]any) (coremetrics.TelemetrySink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterTelemetrySink("prometheus", func(map[string]any) (coremetrics.TelemetrySink, error) {
		// The HTTP endpoint is configured by metrics.prometheus_addr.
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterTelemetrySink("influx", func(conf map[string]any) (coremetrics.TelemetrySink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
