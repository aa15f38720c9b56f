package goSession

import (
	"time"

	"github.com/MrEthical07/goSession/credential"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/store"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a Manager. It is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	primary PrimaryStore
	shadow  ShadowStore

	authenticator Authenticator
	navigator     Navigator
	logger        Logger
	auditSink     AuditSink
	now           func() time.Time

	built bool
}

// PrimaryStore is the credential slot; see store.PrimaryStore.
type PrimaryStore = store.PrimaryStore

// ShadowStore is the per-user display mirror; see store.ShadowStore.
type ShadowStore = store.ShadowStore

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis backs both stores with client unless explicit stores are set.
// Keys are namespaced by Config.Redis.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithPrimaryStore(s PrimaryStore) *Builder {
	b.primary = s
	return b
}

func (b *Builder) WithShadowStore(s ShadowStore) *Builder {
	b.shadow = s
	return b
}

func (b *Builder) WithAuthenticator(a Authenticator) *Builder {
	b.authenticator = a
	return b
}

func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

func (b *Builder) WithLogger(l Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink enables the audit dispatcher and delivers events to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces time.Now for the codec, the resolver and stores created
// by the builder.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the Manager. Stores default
// to Redis when a client was given and to process memory otherwise.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	cfg.Messages = cfg.Messages.withDefaults()
	if b.auditSink != nil {
		cfg.Audit.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.authenticator == nil {
		return nil, ErrAuthenticatorRequired
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	storeOpts := []store.Option{
		store.WithClock(now),
		store.WithMaxCredentialBytes(cfg.Primary.MaxCredentialBytes),
	}

	// -------- STORES --------
	primary, shadow := b.primary, b.shadow
	if b.redis != nil {
		ns := store.NewNamespace(cfg.Redis.Prefix, cfg.Redis.DeviceID)
		if primary == nil {
			primary = store.NewRedisPrimary(b.redis, ns, storeOpts...)
		}
		if shadow == nil {
			shadow = store.NewRedisShadow(b.redis, ns, storeOpts...)
		}
	}
	if primary == nil {
		primary = store.NewMemoryPrimary(storeOpts...)
	}
	if shadow == nil {
		shadow = store.NewMemoryShadow(storeOpts...)
	}

	logger := b.logger
	if logger == nil {
		logger = logging.NewSlogLogger(nil)
	}
	navigator := b.navigator
	if navigator == nil {
		navigator = noopNavigator{}
	}

	m := &Manager{
		config:    cfg,
		codec:     credential.NewCodec(credential.WithClock(now)),
		primary:   primary,
		shadow:    shadow,
		auth:      b.authenticator,
		navigator: navigator,
		logger:    logger.With("component", "gosession"),
		metrics:   NewMetrics(cfg.Metrics),
		now:       now,
	}
	m.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink, now)

	b.built = true

	return m, nil
}
