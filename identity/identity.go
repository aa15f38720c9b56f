package identity

import "strings"

// Role is the coarse authorization tier carried by a session.
type Role string

const (
	// RoleAdmin grants access to club administration screens.
	RoleAdmin Role = "admin"
	// RoleUser is the default tier for every other account.
	RoleUser Role = "user"
)

// ParseRole normalizes a wire value into a known Role.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	default:
		return "", false
	}
}

// Identity is the profile of the user owning a session.
//
// The ID is fixed for the lifetime of a session; display fields change only
// through an explicit profile update.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
}

// Patch carries a partial profile update. Nil fields are left untouched.
type Patch struct {
	DisplayName *string
	Email       *string
	Role        *Role
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.DisplayName == nil && p.Email == nil && p.Role == nil
}

// Apply returns a copy of i with the patch merged in. The ID never changes.
func (i Identity) Apply(p Patch) Identity {
	out := i
	if p.DisplayName != nil {
		out.DisplayName = *p.DisplayName
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Role != nil {
		if role, ok := ParseRole(string(*p.Role)); ok {
			out.Role = role
		}
	}
	return out
}

// Complete reports whether every display field is populated.
func (i Identity) Complete() bool {
	return i.DisplayName != "" && i.Email != "" && i.Role != ""
}

// Overlay copies the non-empty display fields of other over i.
// The receiver's ID always wins.
func (i Identity) Overlay(other Identity) Identity {
	out := i
	if other.DisplayName != "" {
		out.DisplayName = other.DisplayName
	}
	if other.Email != "" {
		out.Email = other.Email
	}
	if other.Role != "" {
		out.Role = other.Role
	}
	return out
}

// WithDefaults fills remaining gaps: the display name falls back to
// defaultName, the email stays empty and the role becomes RoleUser.
func (i Identity) WithDefaults(defaultName string) Identity {
	out := i
	if out.DisplayName == "" {
		out.DisplayName = defaultName
	}
	if role, ok := ParseRole(string(out.Role)); ok {
		out.Role = role
	} else {
		out.Role = RoleUser
	}
	return out
}
