// Package metrics defines the telemetry sinks fed by a running simulation.
// Sinks like PromSink and InfluxSink record vehicle state samples and gear
// shifts and can be combined with NewMultiSink. NewTelemetrySink returns a
// MultiSink automatically when multiple sinks are configured.
package metrics
