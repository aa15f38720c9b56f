// Package otel publishes session manager metrics through an OpenTelemetry
// Meter.
//
// Every counter becomes an Int64ObservableCounter. The latency histogram is
// exposed as one cumulative Int64ObservableGauge per bucket plus a count
// gauge. A single callback reads the manager snapshot per collection; the
// caller owns the MeterProvider.
package otel
