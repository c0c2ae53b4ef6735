// Package infra contains technical adapters: the zerolog logger, the
// Prometheus and InfluxDB telemetry sinks and the MQTT publisher and pedal
// subscriber. These packages depend only on the interfaces defined in the
// core packages.
package infra
