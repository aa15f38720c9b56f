package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/store"
)

// Resolve reconstructs the effective session from both stores.
//
// A live primary credential is authoritative for the subject; the shadow
// store only completes missing display fields. Without a usable credential
// the latest-expiring live shadow entry is used when ShadowFallback is on.
// Store failures are logged and treated as absent data.
func (m *Manager) Resolve(ctx context.Context) Resolution {
	res := m.resolve(ctx)
	switch res.Source {
	case SourcePrimary:
		m.metricInc(MetricResolvePrimary)
	case SourceEnriched:
		m.metricInc(MetricResolveEnriched)
	case SourceShadowFallback:
		m.metricInc(MetricResolveShadowFallback)
	default:
		m.metricInc(MetricResolveUnauthenticated)
	}
	return res
}

func (m *Manager) resolve(ctx context.Context) Resolution {
	if raw, ok := m.readPrimary(ctx); ok {
		// Invalid credentials stay in place; only logout and the transport
		// hook clear the slot.
		if user, valid := m.codec.Decode(raw).Identity(); valid {
			return m.resolveCredential(ctx, user)
		}
	}
	return m.resolveShadow(ctx)
}

func (m *Manager) resolveCredential(ctx context.Context, user Identity) Resolution {
	source := SourcePrimary
	if !user.Complete() {
		if other, ok := m.enrichment(ctx, user.ID); ok {
			user = user.Overlay(other)
			source = SourceEnriched
		}
	}
	return Resolution{
		State:    StateAuthenticated,
		Identity: user.WithDefaults(m.config.Resolver.DefaultDisplayName),
		Source:   source,
	}
}

func (m *Manager) enrichment(ctx context.Context, id string) (Identity, bool) {
	entry, ok, err := m.shadow.GetShadow(ctx, id)
	if err != nil {
		m.storageFailure(ctx, "get shadow", err)
	} else if ok {
		return entry.User, true
	}

	if !m.config.Resolver.CrossAccountEnrichment {
		return Identity{}, false
	}
	latest, ok := m.latestShadow(ctx)
	if !ok {
		return Identity{}, false
	}
	m.logger.Warn(ctx, "display fields borrowed from another account",
		"subject", id,
		"donor", latest.User.ID,
	)
	return latest.User, true
}

func (m *Manager) resolveShadow(ctx context.Context) Resolution {
	if !m.config.Resolver.ShadowFallback {
		return Resolution{}
	}
	entry, ok := m.latestShadow(ctx)
	if !ok {
		return Resolution{}
	}
	return Resolution{
		State:    StateAuthenticated,
		Identity: entry.User.WithDefaults(m.config.Resolver.DefaultDisplayName),
		Source:   SourceShadowFallback,
	}
}

func (m *Manager) latestShadow(ctx context.Context) (store.ShadowEntry, bool) {
	entries, err := m.shadow.ScanShadow(ctx)
	if err != nil {
		m.storageFailure(ctx, "scan shadow", err)
		return store.ShadowEntry{}, false
	}
	return store.Latest(entries)
}

func (m *Manager) readPrimary(ctx context.Context) (string, bool) {
	raw, ok, err := m.primary.GetPrimary(ctx)
	if err != nil {
		m.storageFailure(ctx, "get primary", err)
		return "", false
	}
	return raw, ok
}
