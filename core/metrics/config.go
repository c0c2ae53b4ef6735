package metrics

import "github.com/kilianp07/carsim/core/factory"

// Config defines settings for telemetry sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr exposes /metrics when set, e.g. ":2112".
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
	// SampleIntervalMS downsamples state events forwarded to the sinks.
	SampleIntervalMS int `json:"sample_interval_ms" yaml:"sample_interval_ms"`
}

// SetDefaults applies the default sampling interval.
func (c *Config) SetDefaults() {
	if c.SampleIntervalMS == 0 {
		c.SampleIntervalMS = 100
	}
}
