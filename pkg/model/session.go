package model

import "time"

// Credentials is the transient login input. It is never persisted.
// Validation depends on the role; see validate.Credentials.
type Credentials struct {
	Identifier string
	Password   string
}

// Identity is the authenticated user record mirrored to durable storage
// under the "user" key.
type Identity struct {
	Identifier string    `json:"identifier"`
	Type       Role      `json:"type"`
	Token      string    `json:"token"`
	LoggedInAt time.Time `json:"logged_in_at,omitzero"`
}

// Session is the current authenticated identity plus bearer token.
// A zero Session is the logged-out state.
type Session struct {
	Identity *Identity `json:"identity,omitempty"`
	Token    string    `json:"-"`
}

// IsAuthenticated reports whether the session carries a token.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// Role returns the role derived from the identity, or "" when logged out.
func (s Session) Role() Role {
	if s.Identity == nil || !s.Identity.Type.Valid() {
		return ""
	}
	return s.Identity.Type
}

// Identifier returns the login identifier, or "" when logged out.
func (s Session) Identifier() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Identifier
}
