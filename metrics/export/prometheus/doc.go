// Package prometheus renders session manager metrics in the Prometheus text
// exposition format.
//
// Counters are named gosession_*_total; the endpoint round trip histogram is
// gosession_auth_latency_seconds. Nothing is registered globally: mount
// [Exporter.Handler] wherever the process serves metrics.
package prometheus
