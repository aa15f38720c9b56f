package goSession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/store"
)

func adminResponse(fx *managerFixture, t *testing.T) func(Credentials) (AuthResponse, error) {
	return func(req Credentials) (AuthResponse, error) {
		if req.Principal != "admin" || req.Secret != "admin123" {
			return AuthResponse{}, &EndpointError{Status: 401, Message: "Credenciais inválidas"}
		}
		user := Identity{ID: "1", Role: RoleAdmin}
		return AuthResponse{Credential: fx.encode(t, user, 24*time.Hour), User: user}, nil
	}
}

func TestLoginPersistsBothStores(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = adminResponse(fx, t)
	ctx := context.Background()

	res := fx.manager.Login(ctx, "admin", "admin123")
	if !res.Success || res.Identity == nil {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Identity.Role != RoleAdmin || res.Identity.DisplayName != "User" {
		t.Fatalf("unexpected identity %+v", res.Identity)
	}

	raw, ok, _ := fx.primary.GetPrimary(ctx)
	if !ok || !fx.codec.Live(raw) {
		t.Fatalf("expected live primary credential, got %q", raw)
	}
	entry, ok, _ := fx.shadow.GetShadow(ctx, "1")
	if !ok {
		t.Fatal("expected shadow entry for id 1")
	}
	if !entry.Expiry().Equal(fx.clock.Now().Add(24 * time.Hour).Truncate(time.Second)) {
		t.Fatalf("shadow expiry must match credential expiry, got %v", entry.Expiry())
	}

	user, ok := fx.manager.CurrentUser(ctx)
	if !ok || user.Role != RoleAdmin || user.ID != "1" {
		t.Fatalf("unexpected current user %+v ok=%v", user, ok)
	}
}

func TestLoginFailureTouchesNothing(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = adminResponse(fx, t)
	ctx := context.Background()

	res := fx.manager.Login(ctx, "admin", "wrong")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "Credenciais inválidas" {
		t.Fatalf("expected server message, got %q", res.Error)
	}
	var endpointErr *EndpointError
	if !errors.As(res.Err, &endpointErr) || endpointErr.Status != 401 {
		t.Fatalf("expected EndpointError cause, got %v", res.Err)
	}
	if _, ok, _ := fx.primary.GetPrimary(ctx); ok {
		t.Fatal("failed login must not write the primary store")
	}
	if fx.shadow.Len() != 0 {
		t.Fatal("failed login must not write the shadow store")
	}
}

func TestLoginEndpointErrorWithoutMessageUsesDefault(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = func(Credentials) (AuthResponse, error) {
		return AuthResponse{}, &EndpointError{Status: 500}
	}

	res := fx.manager.Login(context.Background(), "a", "b")
	if res.Error != "Falha na autenticação" {
		t.Fatalf("expected default login message, got %q", res.Error)
	}
}

func TestLoginTransportErrorIsGeneric(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = func(Credentials) (AuthResponse, error) {
		return AuthResponse{}, errors.New("dial tcp: connection refused")
	}

	res := fx.manager.Login(context.Background(), "admin", "admin123")
	if res.Success || res.Error != "Erro de conexão" {
		t.Fatalf("expected connectivity message, got %+v", res)
	}
	if !errors.Is(res.Err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", res.Err)
	}
}

func TestLoginWithoutIdentityFails(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = func(Credentials) (AuthResponse, error) {
		return AuthResponse{Credential: "opaque-token"}, nil
	}

	res := fx.manager.Login(context.Background(), "admin", "admin123")
	if res.Success || !errors.Is(res.Err, ErrEmptyCredential) {
		t.Fatalf("expected ErrEmptyCredential, got %+v", res)
	}
	if _, ok, _ := fx.primary.GetPrimary(context.Background()); ok {
		t.Fatal("nothing may be stored without an identity")
	}
}

func TestLoginOpaqueCredentialUsesShadowTTL(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = func(Credentials) (AuthResponse, error) {
		return AuthResponse{Credential: "opaque-token", User: Identity{ID: "9", DisplayName: "Bia", Role: "ADMIN"}}, nil
	}
	ctx := context.Background()

	res := fx.manager.Login(ctx, "bia", "secret1")
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	raw, _, _ := fx.primary.GetPrimary(ctx)
	if raw != "opaque-token" {
		t.Fatalf("endpoint credential must be stored verbatim, got %q", raw)
	}
	entry, ok, _ := fx.shadow.GetShadow(ctx, "9")
	if !ok || entry.User.Role != RoleAdmin {
		t.Fatalf("expected normalized shadow entry, got %+v ok=%v", entry, ok)
	}
	if !entry.Expiry().Equal(fx.clock.Now().Add(24 * time.Hour)) {
		t.Fatalf("unexpected shadow expiry %v", entry.Expiry())
	}

	// The opaque credential never decodes, so the session rests on the shadow fallback.
	got := fx.manager.Resolve(ctx)
	if got.Source != SourceShadowFallback || got.Identity.ID != "9" {
		t.Fatalf("unexpected resolution %+v", got)
	}
}

func TestLoginWithoutCredentialMintsOne(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = func(Credentials) (AuthResponse, error) {
		return AuthResponse{User: Identity{ID: "3", DisplayName: "Caio", Email: "caio@x.com", Role: RoleUser}}, nil
	}
	ctx := context.Background()

	if res := fx.manager.Login(ctx, "caio", "123456"); !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	raw, _, _ := fx.primary.GetPrimary(ctx)
	user, ok := fx.codec.Decode(raw).Identity()
	if !ok || user.ID != "3" || user.DisplayName != "Caio" {
		t.Fatalf("expected minted credential for id 3, got %+v", user)
	}
}

func TestLoginCredentialTooLargeReportsStorage(t *testing.T) {
	fx := newManagerFixture(t, nil)
	big := make([]byte, store.DefaultMaxCredentialBytes+1)
	for i := range big {
		big[i] = 'x'
	}
	fx.auth.login = func(Credentials) (AuthResponse, error) {
		return AuthResponse{Credential: string(big), User: Identity{ID: "1"}}, nil
	}

	res := fx.manager.Login(context.Background(), "admin", "admin123")
	if res.Success || res.Error != "Não foi possível salvar a sessão" {
		t.Fatalf("expected storage failure, got %+v", res)
	}
	if !errors.Is(res.Err, store.ErrCredentialTooLarge) {
		t.Fatalf("expected ErrCredentialTooLarge, got %v", res.Err)
	}
	if fx.shadow.Len() != 0 {
		t.Fatal("shadow must stay empty when the primary write fails")
	}
}

func TestAtMostOneLivePrimaryAfterLogins(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = func(req Credentials) (AuthResponse, error) {
		user := Identity{ID: req.Principal, DisplayName: req.Principal, Email: req.Principal + "@x.com", Role: RoleUser}
		return AuthResponse{Credential: fx.encode(t, user, time.Hour), User: user}, nil
	}
	ctx := context.Background()

	for _, who := range []string{"a", "b", "c"} {
		if res := fx.manager.Login(ctx, who, "secret"); !res.Success {
			t.Fatalf("login %s: %+v", who, res)
		}
		fx.clock.Advance(time.Second)
	}

	raw, _, _ := fx.primary.GetPrimary(ctx)
	user, ok := fx.codec.Decode(raw).Identity()
	if !ok || user.ID != "c" {
		t.Fatalf("primary must hold the most recent login, got %+v", user)
	}
	current, _ := fx.manager.CurrentUser(ctx)
	if current.ID != "c" {
		t.Fatalf("current user must be the last login, got %+v", current)
	}
	if fx.shadow.Len() != 3 {
		t.Fatalf("every account keeps its shadow entry, got %d", fx.shadow.Len())
	}
}

func TestRegisterValidationSkipsNetwork(t *testing.T) {
	fx := newManagerFixture(t, nil)
	ctx := context.Background()

	cases := []struct {
		name, email, secret string
		want                string
	}{
		{"A", "a@x.com", "123456", "Nome deve ter pelo menos 2 caracteres"},
		{"Ana", "ana@x.com", "12345", "Senha deve ter pelo menos 6 caracteres"},
		{"Ana", "ana.x.com", "123456", "Email inválido"},
		{" A ", "no-at", "1", "Nome deve ter pelo menos 2 caracteres"},
	}
	for _, tc := range cases {
		res := fx.manager.Register(ctx, tc.name, tc.email, tc.secret)
		if res.Success || res.Error != tc.want {
			t.Fatalf("Register(%q,%q,%q): got %+v want %q", tc.name, tc.email, tc.secret, res, tc.want)
		}
		if !errors.Is(res.Err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", res.Err)
		}
	}
	if fx.auth.Calls() != 0 {
		t.Fatalf("validation failures must not reach the endpoint, got %d calls", fx.auth.Calls())
	}
	if got := fx.manager.MetricsSnapshot().Counters[MetricRegisterRejected]; got != uint64(len(cases)) {
		t.Fatalf("expected %d rejected registrations, got %d", len(cases), got)
	}
}

func TestRegisterDefaultsToUserRole(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.register = func(req Registration) (AuthResponse, error) {
		return AuthResponse{User: Identity{ID: "7"}}, nil
	}
	ctx := context.Background()

	res := fx.manager.Register(ctx, "  Ana  ", "ana@x.com", "123456")
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if fx.auth.lastSignup.Name != "Ana" {
		t.Fatalf("name must be trimmed before sending, got %q", fx.auth.lastSignup.Name)
	}
	want := Identity{ID: "7", DisplayName: "Ana", Email: "ana@x.com", Role: RoleUser}
	if *res.Identity != want {
		t.Fatalf("got %+v want %+v", *res.Identity, want)
	}
	current, ok := fx.manager.CurrentUser(ctx)
	if !ok || current != want {
		t.Fatalf("current user %+v ok=%v", current, ok)
	}
}

func TestRegisterEndpointError(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.register = func(Registration) (AuthResponse, error) {
		return AuthResponse{}, &EndpointError{Status: 409}
	}

	res := fx.manager.Register(context.Background(), "Ana", "ana@x.com", "123456")
	if res.Success || res.Error != "Falha no cadastro" {
		t.Fatalf("expected default register message, got %+v", res)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = adminResponse(fx, t)
	ctx := context.Background()

	if res := fx.manager.Login(ctx, "admin", "admin123"); !res.Success {
		t.Fatalf("login: %+v", res)
	}
	fx.manager.Logout(ctx)

	if _, ok, _ := fx.primary.GetPrimary(ctx); ok {
		t.Fatal("primary must be cleared")
	}
	if fx.shadow.Len() != 0 {
		t.Fatalf("shadow must be empty, got %d entries", fx.shadow.Len())
	}

	fx.manager.Logout(ctx)
	if _, ok, _ := fx.primary.GetPrimary(ctx); ok || fx.shadow.Len() != 0 {
		t.Fatal("second logout must leave the same cleared state")
	}
	if fx.manager.IsAuthenticated(ctx) {
		t.Fatal("no session after logout")
	}

	events := fx.drainNavigator()
	if len(events) != 2 || events[0].Reason != ReasonLogout || events[0].UserID != "1" {
		t.Fatalf("unexpected navigation events %+v", events)
	}
}

func TestLogoutWithoutPurgeKeepsOtherAccounts(t *testing.T) {
	fx := newManagerFixture(t, func(cfg *Config) {
		cfg.Shadow.PurgeOnLogout = false
		cfg.Resolver.ShadowFallback = false
	})
	ctx := context.Background()
	other := Identity{ID: "2", DisplayName: "Bia", Email: "bia@x.com", Role: RoleUser}
	if err := fx.shadow.SetShadow(ctx, other, fx.clock.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SetShadow: %v", err)
	}
	fx.auth.login = adminResponse(fx, t)
	fx.manager.Login(ctx, "admin", "admin123")

	fx.manager.Logout(ctx)

	if _, ok, _ := fx.shadow.GetShadow(ctx, "1"); ok {
		t.Fatal("current user's entry must be removed")
	}
	if _, ok, _ := fx.shadow.GetShadow(ctx, "2"); !ok {
		t.Fatal("other accounts must survive a non-purging logout")
	}
}

func TestEndSessionNotifiesOnce(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = adminResponse(fx, t)
	ctx := context.Background()
	fx.manager.Login(ctx, "admin", "admin123")

	if !fx.manager.EndSession(ctx, ReasonUnauthorized) {
		t.Fatal("first forced logout must tear down the session")
	}
	if fx.manager.EndSession(ctx, ReasonUnauthorized) {
		t.Fatal("second forced logout has nothing to tear down")
	}

	events := fx.drainNavigator()
	if len(events) != 1 || events[0].Reason != ReasonUnauthorized {
		t.Fatalf("expected exactly one navigation, got %+v", events)
	}
	if got := fx.manager.MetricsSnapshot().Counters[MetricForcedLogout]; got != 1 {
		t.Fatalf("expected one forced logout, got %d", got)
	}
}

func TestEndSessionClearsMalformedPrimary(t *testing.T) {
	fx := newManagerFixture(t, nil)
	ctx := context.Background()
	if err := fx.primary.SetPrimary(ctx, "garbage", time.Hour); err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}

	if !fx.manager.EndSession(ctx, ReasonForbidden) {
		t.Fatal("a stored credential counts as a session to tear down")
	}
	if _, ok, _ := fx.primary.GetPrimary(ctx); ok {
		t.Fatal("primary must be cleared")
	}
}

func TestUpdateIdentityRequiresSession(t *testing.T) {
	fx := newManagerFixture(t, nil)
	name := "Novo"
	if fx.manager.UpdateIdentity(context.Background(), IdentityPatch{DisplayName: &name}) {
		t.Fatal("update without a session must return false")
	}
	if _, ok, _ := fx.primary.GetPrimary(context.Background()); ok {
		t.Fatal("update without a session must not write")
	}
}

func TestUpdateIdentityReissuesCredential(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = adminResponse(fx, t)
	ctx := context.Background()
	fx.manager.Login(ctx, "admin", "admin123")
	fx.clock.Advance(time.Hour)

	name, email := "Administrador", "admin@club.com"
	if !fx.manager.UpdateIdentity(ctx, IdentityPatch{DisplayName: &name, Email: &email}) {
		t.Fatal("expected update to succeed")
	}

	raw, _, _ := fx.primary.GetPrimary(ctx)
	res := fx.codec.Decode(raw)
	claimed, ok := res.Identity()
	if !ok || claimed.DisplayName != name || claimed.Email != email || claimed.ID != "1" || claimed.Role != RoleAdmin {
		t.Fatalf("unexpected re-issued claims %+v", claimed)
	}
	if !res.Claims.Expiry().Equal(fx.clock.Now().Add(24 * time.Hour)) {
		t.Fatalf("re-issued credential must carry a fresh ttl, got %v", res.Claims.Expiry())
	}
	entry, ok, _ := fx.shadow.GetShadow(ctx, "1")
	if !ok || entry.User.DisplayName != name {
		t.Fatalf("shadow must mirror the update, got %+v", entry)
	}
}

func TestRefreshExtendsExpiry(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = adminResponse(fx, t)
	ctx := context.Background()

	if fx.manager.Refresh(ctx) {
		t.Fatal("refresh without session must fail")
	}
	fx.manager.Login(ctx, "admin", "admin123")
	fx.clock.Advance(23 * time.Hour)

	if !fx.manager.Refresh(ctx) {
		t.Fatal("refresh must succeed with a live session")
	}
	fx.clock.Advance(2 * time.Hour)

	res := fx.manager.Resolve(ctx)
	if res.Source == SourceShadowFallback || !res.Authenticated() {
		t.Fatalf("refreshed credential must still be live, got %+v", res)
	}
}

func TestRefreshShadowExpiresWithCredential(t *testing.T) {
	fx := newManagerFixture(t, nil)
	fx.auth.login = adminResponse(fx, t)
	ctx := context.Background()
	fx.manager.Login(ctx, "admin", "admin123")
	fx.clock.Advance(time.Hour + 250*time.Millisecond)

	if !fx.manager.Refresh(ctx) {
		t.Fatal("refresh must succeed with a live session")
	}

	raw, _, _ := fx.primary.GetPrimary(ctx)
	exp := fx.codec.Decode(raw).Claims.Expiry()
	entry, ok, _ := fx.shadow.GetShadow(ctx, "1")
	if !ok || entry.ExpiresAt != exp.UnixMilli() {
		t.Fatalf("shadow expiry %d, want credential exp %d", entry.ExpiresAt, exp.UnixMilli())
	}

	fx.clock.Advance(exp.Sub(fx.clock.Now()))
	if res := fx.manager.Resolve(ctx); res.Authenticated() {
		t.Fatalf("session must end with the credential, got source %q", res.Source)
	}
}

func TestCredentialExposesRawValue(t *testing.T) {
	fx := newManagerFixture(t, nil)
	ctx := context.Background()
	if _, ok := fx.manager.Credential(ctx); ok {
		t.Fatal("no credential expected")
	}
	_ = fx.primary.SetPrimary(ctx, "expired.or.not", time.Hour)
	if raw, ok := fx.manager.Credential(ctx); !ok || raw != "expired.or.not" {
		t.Fatalf("expected raw credential, got %q", raw)
	}
}
