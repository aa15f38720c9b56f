package credential

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSubject is returned by Encode when the identity has no ID.
	ErrMissingSubject = errors.New("credential subject is empty")
	// ErrInvalidTTL is returned by Encode for non-positive lifetimes.
	ErrInvalidTTL = errors.New("credential ttl must be positive")
)

const placeholderPrefix = "unsigned-"

// Claims is the payload segment of a session credential.
//
// Display fields are optional: credentials issued by the authentication
// endpoint may carry only the subject, role and expiry.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims into a profile. Unknown roles are left empty
// so the caller can decide on a default.
func (c *Claims) Identity() identity.Identity {
	if c == nil {
		return identity.Identity{}
	}
	role, _ := identity.ParseRole(c.Role)
	return identity.Identity{
		ID:          c.Subject,
		DisplayName: c.Name,
		Email:       c.Email,
		Role:        role,
	}
}

// Expiry returns the expires-at claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for iat/exp and liveness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// Codec encodes and decodes three-segment session credentials.
//
// It never verifies signatures: the authentication endpoint is the only
// party able to do that, so decoded claims are display data, not proof.
// Codec is safe for concurrent use.
type Codec struct {
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec creates a Codec with the given options.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		now:    time.Now,
		parser: jwt.NewParser(jwt.WithPaddingAllowed()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode builds a credential for id that expires ttl from now. The exp claim
// has whole-second precision and is rounded up, so the credential never
// expires before ttl has elapsed.
//
// The first two segments are a standard JWT header and claims set; the third
// is a fixed placeholder that no verifier will accept.
func (c *Codec) Encode(id identity.Identity, ttl time.Duration) (string, error) {
	if strings.TrimSpace(id.ID) == "" {
		return "", ErrMissingSubject
	}
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}

	now := c.now()
	expiresAt := now.Add(ttl)
	if exp := expiresAt.Truncate(jwt.TimePrecision); exp.Before(expiresAt) {
		expiresAt = exp.Add(jwt.TimePrecision)
	}
	claims := Claims{
		Name:  id.DisplayName,
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SigningString()
	if err != nil {
		return "", err
	}

	return unsigned + "." + placeholderSignature(id.ID), nil
}

// Decode reads raw without verifying it. It never panics and never returns
// an error: every failure is reported through the result status.
func (c *Codec) Decode(raw string) DecodeResult {
	raw = normalize(raw)
	if raw == "" {
		return DecodeResult{Status: StatusMalformed}
	}

	claims := &Claims{}
	if _, _, err := c.parser.ParseUnverified(raw, claims); err != nil {
		return DecodeResult{Status: StatusMalformed}
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ExpiresAt == nil {
		return DecodeResult{Status: StatusMalformed}
	}

	if !c.now().Before(claims.ExpiresAt.Time) {
		return DecodeResult{Status: StatusExpired, Claims: claims}
	}

	return DecodeResult{Status: StatusValid, Claims: claims}
}

// Live is a shorthand for Decode(raw).Valid().
func (c *Codec) Live(raw string) bool {
	return c.Decode(raw).Valid()
}

func placeholderSignature(subject string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(placeholderPrefix + subject))
}

// normalize maps the standard base64 alphabet onto base64url so credentials
// produced by btoa-style encoders decode as well.
func normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return strings.NewReplacer("+", "-", "/", "_").Replace(raw)
}
