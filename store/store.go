package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/google/uuid"
)

var (
	// ErrBackendUnavailable wraps transport-level failures of a store backend.
	ErrBackendUnavailable = errors.New("session store unavailable")
	// ErrCredentialTooLarge is returned when a credential exceeds the primary slot capacity.
	ErrCredentialTooLarge = errors.New("credential exceeds primary store capacity")
	// ErrInvalidTTL is returned for non-positive primary lifetimes.
	ErrInvalidTTL = errors.New("primary ttl must be positive")
	// ErrMissingID is returned when a shadow write has no identity id.
	ErrMissingID = errors.New("shadow entry requires an identity id")
)

// DefaultMaxCredentialBytes mirrors the per-cookie capacity of browsers.
const DefaultMaxCredentialBytes = 4096

// PrimaryStore holds the single raw credential slot.
//
// Writes overwrite the slot; the backend expires it on its own after ttl.
type PrimaryStore interface {
	SetPrimary(ctx context.Context, raw string, ttl time.Duration) error
	GetPrimary(ctx context.Context) (string, bool, error)
	ClearPrimary(ctx context.Context) error
}

// ShadowStore mirrors identity display data, one entry per user id.
//
// Reads never surface decoding errors: corrupt and expired entries are
// deleted and reported as absent.
type ShadowStore interface {
	SetShadow(ctx context.Context, user identity.Identity, expiresAt time.Time) error
	GetShadow(ctx context.Context, id string) (ShadowEntry, bool, error)
	RemoveShadow(ctx context.Context, id string) error
	// ScanShadow returns every live entry ordered by user id, deleting
	// expired and corrupt entries as a side effect.
	ScanShadow(ctx context.Context) ([]ShadowEntry, error)
	PurgeShadow(ctx context.Context) error
}

// ShadowEntry is the persisted record {user, expiresAt}. ExpiresAt is in
// unix milliseconds.
type ShadowEntry struct {
	User      identity.Identity `json:"user"`
	ExpiresAt int64             `json:"expiresAt"`
}

// Expiry returns ExpiresAt as a time.
func (e ShadowEntry) Expiry() time.Time {
	return time.UnixMilli(e.ExpiresAt)
}

// LiveAt reports whether the entry has not expired at now.
func (e ShadowEntry) LiveAt(now time.Time) bool {
	return now.UnixMilli() < e.ExpiresAt
}

// Latest returns the entry with the greatest expiry. Ties keep the first
// entry encountered, so the choice is stable for a given order.
func Latest(entries []ShadowEntry) (ShadowEntry, bool) {
	if len(entries) == 0 {
		return ShadowEntry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.ExpiresAt > best.ExpiresAt {
			best = e
		}
	}
	return best, true
}

// Namespace scopes all keys of one device inside a shared backend.
type Namespace struct {
	Prefix string
	Device string
}

// NewNamespace returns a namespace for device, generating a random device id
// when none is given.
func NewNamespace(prefix, device string) Namespace {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "gosession"
	}
	device = strings.TrimSpace(device)
	if device == "" {
		device = uuid.NewString()
	}
	return Namespace{Prefix: prefix, Device: device}
}

func (n Namespace) credentialKey() string {
	return n.Prefix + ":" + n.Device + ":credential"
}

func (n Namespace) shadowKey(id string) string {
	return n.Prefix + ":" + n.Device + ":session:" + id
}

func (n Namespace) indexKey() string {
	return n.Prefix + ":" + n.Device + ":sessions"
}

// Option configures store implementations.
type Option func(*options)

type options struct {
	now        func() time.Time
	maxBytes   int
	cookieName string
}

func defaultOptions() options {
	return options{
		now:        time.Now,
		maxBytes:   DefaultMaxCredentialBytes,
		cookieName: DefaultCookieName,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMaxCredentialBytes overrides the primary slot capacity.
func WithMaxCredentialBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// WithCookieName overrides the cookie used by CookiePrimary.
func WithCookieName(name string) Option {
	return func(o *options) {
		if strings.TrimSpace(name) != "" {
			o.cookieName = name
		}
	}
}

func checkCredential(raw string, ttl time.Duration, maxBytes int) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if len(raw) > maxBytes {
		return ErrCredentialTooLarge
	}
	return nil
}

func encodeEntry(user identity.Identity, expiresAt time.Time) ([]byte, error) {
	return json.Marshal(ShadowEntry{User: user, ExpiresAt: expiresAt.UnixMilli()})
}

// decodeEntry rejects records that are not JSON, have no user id, or were
// filed under a different id than the one they carry.
func decodeEntry(id string, data []byte) (ShadowEntry, bool) {
	var entry ShadowEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return ShadowEntry{}, false
	}
	if entry.User.ID == "" || entry.User.ID != id || entry.ExpiresAt <= 0 {
		return ShadowEntry{}, false
	}
	return entry, true
}

func sortEntries(entries []ShadowEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].User.ID < entries[j].User.ID
	})
}
