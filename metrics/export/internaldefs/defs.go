package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one counter slot.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram slot.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Logins accepted by the endpoint and persisted."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Logins rejected by the endpoint or not persisted."},
	{ID: goSession.MetricRegisterSuccess, Name: "gosession_register_success_total", Help: "Registrations accepted and persisted."},
	{ID: goSession.MetricRegisterFailure, Name: "gosession_register_failure_total", Help: "Registrations rejected by the endpoint or not persisted."},
	{ID: goSession.MetricRegisterRejected, Name: "gosession_register_rejected_total", Help: "Registrations rejected by local validation."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "User initiated logouts."},
	{ID: goSession.MetricForcedLogout, Name: "gosession_forced_logout_total", Help: "Sessions ended after a 401 or 403 answer."},
	{ID: goSession.MetricIdentityUpdated, Name: "gosession_identity_updated_total", Help: "Profile updates re-issued into the credential."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Credentials re-issued with a new expiry."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Refresh attempts without a session or storage."},
	{ID: goSession.MetricResolvePrimary, Name: "gosession_resolve_primary_total", Help: "Resolutions served by the credential alone."},
	{ID: goSession.MetricResolveEnriched, Name: "gosession_resolve_enriched_total", Help: "Resolutions completed from the shadow store."},
	{ID: goSession.MetricResolveShadowFallback, Name: "gosession_resolve_shadow_fallback_total", Help: "Resolutions served by a shadow entry without a usable credential."},
	{ID: goSession.MetricResolveUnauthenticated, Name: "gosession_resolve_unauthenticated_total", Help: "Resolutions without a session."},
	{ID: goSession.MetricStorageError, Name: "gosession_storage_error_total", Help: "Store operations that failed and were absorbed."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricAuthLatency, Name: "gosession_auth_latency_seconds", Help: "Authentication endpoint round trip latency."},
}

// HistogramBounds are the upper bounds of the latency buckets in seconds.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundSuffix renders HistogramBounds as instrument name suffixes.
var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, n := range raw {
		running += n
		out[i] = running
	}
	return out
}
