package goSession

import "errors"

var (
	// ErrAuthenticatorRequired is returned by Build when no Authenticator was set.
	ErrAuthenticatorRequired = errors.New("authenticator required")
	// ErrBuilderUsed is returned when Build is called twice.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrNoSession is returned by operations that need a resolved session.
	ErrNoSession = errors.New("no active session")
	// ErrValidation wraps registration input errors.
	ErrValidation = errors.New("invalid registration input")
	// ErrEmptyCredential is returned when the endpoint answers without a credential or identity.
	ErrEmptyCredential = errors.New("endpoint returned no usable credential")
	// ErrTransport wraps authenticator failures that are not endpoint answers.
	ErrTransport = errors.New("authentication endpoint unreachable")
	// ErrStorage wraps primary or shadow write failures during login.
	ErrStorage = errors.New("session storage failed")
)

// EndpointError is a non-2xx answer of the authentication endpoint. Message is
// the server's "error" field and may be empty.
type EndpointError struct {
	Status  int
	Message string
}

func (e *EndpointError) Error() string {
	if e.Message == "" {
		return "authentication endpoint rejected the request"
	}
	return e.Message
}
