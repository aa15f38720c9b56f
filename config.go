package goSession

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/store"
)

// Config is the complete manager configuration. Start from DefaultConfig and
// override fields; Build validates the result.
type Config struct {
	Credential CredentialConfig
	Primary    PrimaryConfig
	Shadow     ShadowConfig
	Resolver   ResolverConfig
	Validation ValidationConfig
	Redis      RedisConfig
	Messages   Messages
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig controls credentials minted locally by UpdateIdentity,
// Refresh, and for endpoint answers without a credential.
type CredentialConfig struct {
	TTL time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// PrimaryConfig controls the credential slot.
type PrimaryConfig struct {
	TTL                time.Duration
	MaxCredentialBytes int
}

// ShadowConfig controls the per-user display mirror.
type ShadowConfig struct {
	// TTL is the entry lifetime used when the credential carries no readable expiry.
	TTL time.Duration
	// PurgeOnLogout removes every shadow entry on logout, not only the current user's.
	PurgeOnLogout bool
}

// RedisConfig namespaces keys when the builder creates Redis stores.
type RedisConfig struct {
	Prefix   string
	DeviceID string
}

/*
====================================
RESOLVER CONFIG
====================================
*/

// ResolverConfig controls how gaps in the primary credential are filled.
type ResolverConfig struct {
	// ShadowFallback authenticates from the latest live shadow entry when the
	// primary credential is absent or invalid.
	ShadowFallback bool
	// CrossAccountEnrichment fills missing display fields from another
	// user's shadow entry when the subject has none of its own.
	CrossAccountEnrichment bool
	DefaultDisplayName     string
}

// ValidationConfig holds the registration shape checks.
type ValidationConfig struct {
	MinNameLength   int
	MinSecretLength int
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration matching the club frontend: a
// 24h credential in a 7-day primary slot, shadow fallback on, cross-account
// enrichment off.
func DefaultConfig() Config {
	return Config{
		Credential: CredentialConfig{
			TTL: 24 * time.Hour,
		},
		Primary: PrimaryConfig{
			TTL:                7 * 24 * time.Hour,
			MaxCredentialBytes: store.DefaultMaxCredentialBytes,
		},
		Shadow: ShadowConfig{
			TTL:           24 * time.Hour,
			PurgeOnLogout: true,
		},
		Resolver: ResolverConfig{
			ShadowFallback:         true,
			CrossAccountEnrichment: false,
			DefaultDisplayName:     "User",
		},
		Validation: ValidationConfig{
			MinNameLength:   2,
			MinSecretLength: 6,
		},
		Redis: RedisConfig{
			Prefix: "gosession",
		},
		Messages: DefaultMessages(),
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Credential.TTL <= 0 {
		return errors.New("Credential TTL must be > 0")
	}
	if c.Primary.TTL <= 0 {
		return errors.New("Primary TTL must be > 0")
	}
	if c.Primary.MaxCredentialBytes <= 0 {
		return errors.New("Primary MaxCredentialBytes must be > 0")
	}
	if c.Shadow.TTL <= 0 {
		return errors.New("Shadow TTL must be > 0")
	}
	if strings.TrimSpace(c.Resolver.DefaultDisplayName) == "" {
		return errors.New("Resolver DefaultDisplayName must not be empty")
	}
	if c.Validation.MinNameLength < 0 || c.Validation.MinSecretLength < 0 {
		return errors.New("Validation lengths must be >= 0")
	}
	if strings.ContainsAny(c.Redis.Prefix, " :") {
		return errors.New("Redis Prefix must not contain spaces or ':'")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
