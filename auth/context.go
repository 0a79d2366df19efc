package auth

import (
	"encoding/json"

	"github.com/sessionworks/authbridge/sessions"
	"github.com/sessionworks/authbridge/token"
)

// Context is the normalized view of the caller's authentication state
// handed to application handlers. It takes exactly one of two shapes: the
// authorized shape with every field populated from the session and its
// claims, or the unauthorized shape with every field zero. Fields are
// never partially populated.
type Context struct {
	User           json.RawMessage        `json:"user"`
	SessionID      string                 `json:"sessionId"`
	AccessToken    string                 `json:"accessToken"`
	OrganizationID string                 `json:"organizationId"`
	Role           string                 `json:"role"`
	Permissions    []string               `json:"permissions"`
	Entitlements   []string               `json:"entitlements"`
	Impersonator   *sessions.Impersonator `json:"impersonator"`
	SealedSession  string                 `json:"sealedSession"`
}

// Anonymous returns the unauthorized shape.
func Anonymous() *Context {
	return &Context{}
}

// Authenticated reports whether the context carries an authorized
// session.
func (c *Context) Authenticated() bool {
	return c != nil && c.AccessToken != ""
}

// MergeFields returns the auth fields as a map for shallow-merging into
// handler output. The unauthorized shape yields explicit nulls for every
// key so the two shapes serialize with identical key sets.
func (c *Context) MergeFields() map[string]any {
	if !c.Authenticated() {
		return map[string]any{
			"user":           nil,
			"sessionId":      nil,
			"accessToken":    nil,
			"organizationId": nil,
			"role":           nil,
			"permissions":    nil,
			"entitlements":   nil,
			"impersonator":   nil,
			"sealedSession":  nil,
		}
	}
	fields := map[string]any{
		"user":           c.User,
		"sessionId":      c.SessionID,
		"accessToken":    c.AccessToken,
		"organizationId": c.OrganizationID,
		"role":           c.Role,
		"permissions":    c.Permissions,
		"entitlements":   c.Entitlements,
		"sealedSession":  c.SealedSession,
	}
	if c.Impersonator != nil {
		fields["impersonator"] = c.Impersonator
	} else {
		fields["impersonator"] = nil
	}
	return fields
}

// newContext builds the authorized shape from a session, its decoded
// claims and the sealed cookie value the session round-tripped through.
func newContext(session *sessions.Session, claims *token.Claims, sealed string) *Context {
	return &Context{
		User:           session.User,
		SessionID:      claims.SessionID,
		AccessToken:    session.AccessToken,
		OrganizationID: claims.OrganizationID,
		Role:           claims.Role,
		Permissions:    claims.Permissions,
		Entitlements:   claims.Entitlements,
		Impersonator:   session.Impersonator,
		SealedSession:  sealed,
	}
}
