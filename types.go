package goSession

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/logging"
)

// Identity is the profile of the session owner.
type Identity = identity.Identity

// IdentityPatch is a partial profile update.
type IdentityPatch = identity.Patch

// Role is the coarse authorization tier of an identity.
type Role = identity.Role

const (
	RoleAdmin = identity.RoleAdmin
	RoleUser  = identity.RoleUser
)

// Logger is the structured logger used by the manager.
type Logger = logging.Logger

// NewSlogLogger adapts l to Logger; nil uses slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	return logging.NewSlogLogger(l)
}

// State is the outcome of session resolution.
type State uint8

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Source tells which store produced a resolved identity.
type Source string

const (
	SourceNone Source = ""
	// SourcePrimary: a live credential carrying every display field.
	SourcePrimary Source = "primary"
	// SourceEnriched: a live credential completed from the shadow store.
	SourceEnriched Source = "primary+shadow"
	// SourceShadowFallback: no usable credential, a live shadow entry was used.
	SourceShadowFallback Source = "shadow-fallback"
)

// Resolution is the effective session reconstructed from both stores.
type Resolution struct {
	State    State
	Identity Identity
	Source   Source
}

// Authenticated reports whether the resolution carries a session.
func (r Resolution) Authenticated() bool {
	return r.State == StateAuthenticated
}

// Result is the value returned by Login and Register. Failures are reported
// in Error and never as Go errors or panics.
type Result struct {
	Success  bool
	Identity *Identity
	Error    string
	// Err is the underlying cause for failed results, for errors.Is checks.
	Err error
}

// Reason explains why a session ended.
type Reason string

const (
	ReasonLogout       Reason = "logout"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonForbidden    Reason = "forbidden"
)

// SessionEnded is emitted to the Navigator whenever a session is torn down.
type SessionEnded struct {
	Reason Reason
	UserID string
	At     time.Time
}

// Navigator moves the presentation layer away from protected content.
// Implementations must not block for long; they run on the caller's goroutine.
type Navigator interface {
	SessionEnded(ctx context.Context, event SessionEnded)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, event SessionEnded)

func (f NavigatorFunc) SessionEnded(ctx context.Context, event SessionEnded) { f(ctx, event) }

// Credentials is the login request sent to the authentication endpoint.
type Credentials struct {
	Principal string
	Secret    string
}

// Registration is the register request sent to the authentication endpoint.
type Registration struct {
	Name   string
	Email  string
	Secret string
}

// AuthResponse is a successful endpoint answer. Credential is the raw
// three-segment value (it may also be opaque); User is the server's view of
// the identity.
type AuthResponse struct {
	Credential string
	User       Identity
}

// Authenticator is the remote authentication endpoint. Non-2xx answers must
// be reported as *EndpointError; any other error is treated as a transport
// failure.
type Authenticator interface {
	Login(ctx context.Context, req Credentials) (AuthResponse, error)
	Register(ctx context.Context, req Registration) (AuthResponse, error)
}
