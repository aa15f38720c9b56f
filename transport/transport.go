// Package transport provides the HTTP boundary hook: a RoundTripper that
// attaches the session credential to outgoing requests and ends the session
// when the server rejects it.
package transport

import (
	"context"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Session is the part of *goSession.Manager the hook needs.
type Session interface {
	Credential(ctx context.Context) (string, bool)
	EndSession(ctx context.Context, reason goSession.Reason) bool
}

// RoundTripper wraps a base transport with credential injection and
// rejection handling.
type RoundTripper struct {
	base    http.RoundTripper
	session Session
}

// New wraps base; a nil base uses http.DefaultTransport.
func New(base http.RoundTripper, session Session) *RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RoundTripper{base: base, session: session}
}

// Client returns an *http.Client using the hook.
func (t *RoundTripper) Client() *http.Client {
	return &http.Client{Transport: t}
}

// RoundTrip sends a clone of req carrying the bearer credential. A 401 or 403
// answer ends the session before the response is handed back unchanged.
func (t *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx := goSession.WithRequestID(req.Context(), requestID)

	out := req.Clone(ctx)
	out.Header.Set(RequestIDHeader, requestID)
	if raw, ok := t.session.Credential(ctx); ok {
		out.Header.Set("Authorization", "Bearer "+raw)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		t.session.EndSession(ctx, goSession.ReasonUnauthorized)
	case http.StatusForbidden:
		t.session.EndSession(ctx, goSession.ReasonForbidden)
	}
	return resp, nil
}
