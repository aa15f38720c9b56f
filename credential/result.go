package credential

import "github.com/MrEthical07/goSession/identity"

// Status classifies a decoded credential.
type Status uint8

const (
	// StatusMalformed means the input is not a three-segment credential with
	// decodable claims, a subject and an expiry.
	StatusMalformed Status = iota
	// StatusExpired means the credential is well-formed but exp <= now.
	StatusExpired
	// StatusValid means the credential is well-formed and live.
	StatusValid
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	default:
		return "malformed"
	}
}

// DecodeResult is the tagged outcome of Codec.Decode.
//
// Claims is set for StatusValid and StatusExpired and nil for
// StatusMalformed.
type DecodeResult struct {
	Status Status
	Claims *Claims
}

// Valid reports whether the credential is well-formed and live.
func (r DecodeResult) Valid() bool {
	return r.Status == StatusValid && r.Claims != nil
}

// Identity returns the decoded profile for a valid credential.
func (r DecodeResult) Identity() (identity.Identity, bool) {
	if !r.Valid() {
		return identity.Identity{}, false
	}
	return r.Claims.Identity(), true
}
