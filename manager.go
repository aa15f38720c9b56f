package goSession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/credential"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/identity"
)

// Manager is the single source of truth for the current session. It is safe
// for concurrent use; all session state lives in the stores.
type Manager struct {
	config    Config
	codec     *credential.Codec
	primary   PrimaryStore
	shadow    ShadowStore
	auth      Authenticator
	navigator Navigator
	logger    Logger
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	now       func() time.Time

	// endMu serializes teardown so concurrent 401s notify the navigator once.
	endMu sync.Mutex
}

// Close flushes pending audit events.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.audit.Close()
}

// IsAuthenticated reports whether the stores currently resolve to a session.
// Callers that need periodic re-validation poll this method.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	return m.Resolve(ctx).Authenticated()
}

// CurrentUser returns the resolved identity.
func (m *Manager) CurrentUser(ctx context.Context) (Identity, bool) {
	res := m.Resolve(ctx)
	if !res.Authenticated() {
		return Identity{}, false
	}
	return res.Identity, true
}

// Credential returns the raw primary credential, live or not. The server is
// the authority on whether it is still accepted.
func (m *Manager) Credential(ctx context.Context) (string, bool) {
	return m.readPrimary(ctx)
}

// Login authenticates against the endpoint and persists the session. Nothing
// is written unless the endpoint accepts the credentials.
func (m *Manager) Login(ctx context.Context, principal, secret string) Result {
	start := m.now()
	resp, err := m.auth.Login(ctx, Credentials{Principal: principal, Secret: secret})
	m.metrics.Observe(MetricAuthLatency, m.now().Sub(start))
	if err != nil {
		m.metricInc(MetricLoginFailure)
		res := m.endpointFailure(err, m.config.Messages.LoginFailed)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", "", res.Err, nil)
		m.logger.Info(ctx, "login rejected", "error", res.Err)
		return res
	}

	user, err := m.establish(ctx, resp, "")
	if err != nil {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, user.ID, "", err, nil)
		return m.establishFailure(ctx, err, m.config.Messages.LoginFailed)
	}

	m.metricInc(MetricLoginSuccess)
	m.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, "", nil, nil)
	m.logger.Info(ctx, "login succeeded", "user_id", user.ID, "role", user.Role)
	return Result{Success: true, Identity: &user}
}

// Register validates the input locally, then creates the account and
// persists the session like Login. Validation failures never reach the
// network.
func (m *Manager) Register(ctx context.Context, name, email, secret string) Result {
	req := Registration{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Secret: secret}
	if verr := m.validateRegistration(req); verr != nil {
		m.metricInc(MetricRegisterRejected)
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", "", verr, nil)
		return Result{Error: verr.msg, Err: verr}
	}

	start := m.now()
	resp, err := m.auth.Register(ctx, req)
	m.metrics.Observe(MetricAuthLatency, m.now().Sub(start))
	if err != nil {
		m.metricInc(MetricRegisterFailure)
		res := m.endpointFailure(err, m.config.Messages.RegisterFailed)
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", "", res.Err, nil)
		m.logger.Info(ctx, "registration rejected", "error", res.Err)
		return res
	}

	// The endpoint may echo only the id; fall back to what was submitted.
	if resp.User.DisplayName == "" {
		resp.User.DisplayName = req.Name
	}
	if resp.User.Email == "" {
		resp.User.Email = req.Email
	}

	user, err := m.establish(ctx, resp, identity.RoleUser)
	if err != nil {
		m.metricInc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegisterFailure, false, user.ID, "", err, nil)
		return m.establishFailure(ctx, err, m.config.Messages.RegisterFailed)
	}

	m.metricInc(MetricRegisterSuccess)
	m.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, "", nil, nil)
	m.logger.Info(ctx, "registration succeeded", "user_id", user.ID)
	return Result{Success: true, Identity: &user}
}

// Logout clears the primary slot and the current user's shadow entry (every
// entry with Shadow.PurgeOnLogout), then notifies the navigator. Calling it
// without a session is harmless.
func (m *Manager) Logout(ctx context.Context) {
	m.endMu.Lock()
	userID, _ := m.teardown(ctx, m.config.Shadow.PurgeOnLogout)
	m.endMu.Unlock()

	m.metricInc(MetricLogout)
	m.emitAudit(ctx, auditEventLogout, true, userID, ReasonLogout, nil, nil)
	m.logger.Info(ctx, "logged out", "user_id", userID)
	m.navigator.SessionEnded(ctx, SessionEnded{Reason: ReasonLogout, UserID: userID, At: m.now()})
}

// EndSession is the forced logout used when the server rejects the
// credential. Every shadow entry is purged. It reports whether anything was
// torn down; only then is the navigator notified, so repeated rejections
// produce a single navigation.
func (m *Manager) EndSession(ctx context.Context, reason Reason) bool {
	m.endMu.Lock()
	userID, ended := m.teardown(ctx, true)
	m.endMu.Unlock()
	if !ended {
		return false
	}

	m.metricInc(MetricForcedLogout)
	m.emitAudit(ctx, auditEventForcedLogout, true, userID, reason, nil, nil)
	m.logger.Warn(ctx, "session ended by server", "user_id", userID, "reason", reason)
	m.navigator.SessionEnded(ctx, SessionEnded{Reason: reason, UserID: userID, At: m.now()})
	return true
}

// UpdateIdentity merges patch into the current identity and re-issues the
// credential with a fresh Credential.TTL. It returns false without a session
// or when the new credential cannot be stored.
func (m *Manager) UpdateIdentity(ctx context.Context, patch IdentityPatch) bool {
	res := m.resolve(ctx)
	if !res.Authenticated() {
		return false
	}

	updated := res.Identity.Apply(patch)
	if err := m.issue(ctx, updated); err != nil {
		m.emitAudit(ctx, auditEventIdentityUpdated, false, updated.ID, "", err, nil)
		return false
	}

	m.metricInc(MetricIdentityUpdated)
	m.emitAudit(ctx, auditEventIdentityUpdated, true, updated.ID, "", nil, nil)
	return true
}

// Refresh re-issues the current identity's credential with a new expiry.
func (m *Manager) Refresh(ctx context.Context) bool {
	res := m.resolve(ctx)
	if !res.Authenticated() {
		m.metricInc(MetricRefreshFailure)
		return false
	}
	if err := m.issue(ctx, res.Identity); err != nil {
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefresh, false, res.Identity.ID, "", err, nil)
		return false
	}

	m.metricInc(MetricRefreshSuccess)
	m.emitAudit(ctx, auditEventRefresh, true, res.Identity.ID, "", nil, nil)
	return true
}

// establish persists an endpoint answer. A decodable credential supplies
// the subject id and expiry; the server's user record supplies display
// fields. Opaque credentials are stored as-is with Shadow.TTL, and a missing
// credential is minted locally.
func (m *Manager) establish(ctx context.Context, resp AuthResponse, defaultRole Role) (Identity, error) {
	user := normalizeRole(resp.User)
	raw := strings.TrimSpace(resp.Credential)
	expiresAt := m.now().Add(m.config.Shadow.TTL)

	if raw != "" {
		decoded := m.codec.Decode(raw)
		if claimed, ok := decoded.Identity(); ok {
			user = normalizeRole(claimed).Overlay(user)
			expiresAt = decoded.Claims.Expiry()
		}
	}
	if user.ID == "" {
		return user, ErrEmptyCredential
	}
	if user.Role == "" && defaultRole != "" {
		user.Role = defaultRole
	}

	if raw == "" {
		if err := m.issue(ctx, user); err != nil {
			return user, err
		}
		return user.WithDefaults(m.config.Resolver.DefaultDisplayName), nil
	}

	if err := m.primary.SetPrimary(ctx, raw, m.config.Primary.TTL); err != nil {
		m.storageFailure(ctx, "set primary", err)
		return user, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	m.writeShadow(ctx, user, expiresAt)
	return user.WithDefaults(m.config.Resolver.DefaultDisplayName), nil
}

// issue mints a credential for user and rewrites both stores.
func (m *Manager) issue(ctx context.Context, user Identity) error {
	raw, err := m.codec.Encode(user, m.config.Credential.TTL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := m.primary.SetPrimary(ctx, raw, m.config.Primary.TTL); err != nil {
		m.storageFailure(ctx, "set primary", err)
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	// The shadow entry must not outlive the credential's own exp claim.
	expiresAt := m.codec.Decode(raw).Claims.Expiry()
	if expiresAt.IsZero() {
		expiresAt = m.now().Add(m.config.Credential.TTL)
	}
	m.writeShadow(ctx, user, expiresAt)
	return nil
}

// writeShadow failures only cost display enrichment, so they are logged and
// swallowed.
func (m *Manager) writeShadow(ctx context.Context, user Identity, expiresAt time.Time) {
	if err := m.shadow.SetShadow(ctx, user, expiresAt); err != nil {
		m.storageFailure(ctx, "set shadow", err)
		m.emitAudit(ctx, auditEventStorageFailure, false, user.ID, "", err, nil)
	}
}

// teardown clears the primary slot and shadow entries. It returns the user
// that was resolved beforehand and whether anything existed to clear.
func (m *Manager) teardown(ctx context.Context, purgeAll bool) (string, bool) {
	res := m.resolve(ctx)
	_, hadPrimary := m.readPrimary(ctx)

	if err := m.primary.ClearPrimary(ctx); err != nil {
		m.storageFailure(ctx, "clear primary", err)
	}
	if res.Authenticated() {
		if err := m.shadow.RemoveShadow(ctx, res.Identity.ID); err != nil {
			m.storageFailure(ctx, "remove shadow", err)
		}
	}
	if purgeAll {
		if err := m.shadow.PurgeShadow(ctx); err != nil {
			m.storageFailure(ctx, "purge shadow", err)
		}
	}
	return res.Identity.ID, hadPrimary || res.Authenticated()
}

func (m *Manager) endpointFailure(err error, fallback string) Result {
	var endpointErr *EndpointError
	if errors.As(err, &endpointErr) {
		msg := strings.TrimSpace(endpointErr.Message)
		if msg == "" {
			msg = fallback
		}
		return Result{Error: msg, Err: err}
	}
	return Result{Error: m.config.Messages.Connection, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
}

func (m *Manager) establishFailure(ctx context.Context, err error, fallback string) Result {
	m.logger.Warn(ctx, "session not established", "error", err)
	if errors.Is(err, ErrStorage) {
		return Result{Error: m.config.Messages.Storage, Err: err}
	}
	return Result{Error: fallback, Err: err}
}

func (m *Manager) storageFailure(ctx context.Context, op string, err error) {
	m.metricInc(MetricStorageError)
	m.logger.Warn(ctx, "session store failure", "op", op, "error", err)
}

func normalizeRole(user Identity) Identity {
	if role, ok := identity.ParseRole(string(user.Role)); ok {
		user.Role = role
	} else {
		user.Role = ""
	}
	return user
}
