// Package internaldefs holds the metric names, help texts and latency bucket
// bounds shared by the Prometheus and OTel exporters, so both expose the same
// series.
package internaldefs
