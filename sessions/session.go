// Package sessions defines the session record stored in the auth cookie
// and the codec that seals it into an opaque, tamper-evident string.
package sessions

import (
	"encoding/json"
	"net/http"
)

// Impersonator identifies the actor behind an impersonated session.
type Impersonator struct {
	Email  string `json:"email"`
	Reason string `json:"reason,omitempty"`
}

// Session is the plaintext record sealed into the session cookie. User is
// the provider-defined profile object; this package treats it as opaque.
//
// Headers carries response headers (typically Set-Cookie) produced while
// the session was being refreshed. It is transient and never sealed.
type Session struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         json.RawMessage `json:"user,omitempty"`
	Impersonator *Impersonator   `json:"impersonator,omitempty"`

	Headers http.Header `json:"-"`
}

// Clone returns a copy of the session with the transient headers dropped.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	if s.User != nil {
		out.User = append(json.RawMessage(nil), s.User...)
	}
	if s.Impersonator != nil {
		imp := *s.Impersonator
		out.Impersonator = &imp
	}
	return out
}
