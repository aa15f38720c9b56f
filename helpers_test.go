package goSession

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/store"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stubAuthenticator struct {
	mu         sync.Mutex
	calls      int
	login      func(Credentials) (AuthResponse, error)
	register   func(Registration) (AuthResponse, error)
	lastLogin  Credentials
	lastSignup Registration
}

func (s *stubAuthenticator) Login(_ context.Context, req Credentials) (AuthResponse, error) {
	s.mu.Lock()
	s.calls++
	s.lastLogin = req
	s.mu.Unlock()
	if s.login == nil {
		return AuthResponse{}, &EndpointError{Status: 401}
	}
	return s.login(req)
}

func (s *stubAuthenticator) Register(_ context.Context, req Registration) (AuthResponse, error) {
	s.mu.Lock()
	s.calls++
	s.lastSignup = req
	s.mu.Unlock()
	if s.register == nil {
		return AuthResponse{}, &EndpointError{Status: 400}
	}
	return s.register(req)
}

func (s *stubAuthenticator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type managerFixture struct {
	manager   *Manager
	auth      *stubAuthenticator
	clock     *testClock
	primary   *store.MemoryPrimary
	shadow    *store.MemoryShadow
	navigator *ChannelNavigator
	codec     *credential.Codec
}

func newManagerFixture(t testing.TB, mutate func(*Config)) *managerFixture {
	t.Helper()
	clock := newTestClock()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	fx := &managerFixture{
		auth:      &stubAuthenticator{},
		clock:     clock,
		primary:   store.NewMemoryPrimary(store.WithClock(clock.Now)),
		shadow:    store.NewMemoryShadow(store.WithClock(clock.Now)),
		navigator: NewChannelNavigator(16),
		codec:     credential.NewCodec(credential.WithClock(clock.Now)),
	}
	m, err := New().
		WithConfig(cfg).
		WithAuthenticator(fx.auth).
		WithPrimaryStore(fx.primary).
		WithShadowStore(fx.shadow).
		WithNavigator(fx.navigator).
		WithLogger(NewSlogLogger(nil)).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(m.Close)
	fx.manager = m
	return fx
}

// encode mints a credential with the fixture clock.
func (fx *managerFixture) encode(t testing.TB, user Identity, ttl time.Duration) string {
	t.Helper()
	raw, err := fx.codec.Encode(user, ttl)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return raw
}

func (fx *managerFixture) drainNavigator() []SessionEnded {
	var out []SessionEnded
	for {
		select {
		case ev := <-fx.navigator.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
