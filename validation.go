package goSession

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// validateRegistration runs the local shape checks in the order the club
// frontend reports them: name, secret, email.
func (m *Manager) validateRegistration(req Registration) *validationError {
	msgs := m.config.Messages
	if utf8.RuneCountInString(strings.TrimSpace(req.Name)) < m.config.Validation.MinNameLength {
		return &validationError{msg: msgs.NameTooShort}
	}
	if utf8.RuneCountInString(req.Secret) < m.config.Validation.MinSecretLength {
		return &validationError{msg: msgs.SecretTooShort}
	}
	if !strings.Contains(req.Email, "@") {
		return &validationError{msg: msgs.InvalidEmail}
	}
	return nil
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrValidation, e.msg)
}

func (e *validationError) Unwrap() error {
	return ErrValidation
}
