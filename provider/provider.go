// Package provider is the HTTP client for the hosted identity provider's
// user-management API: code and refresh-token exchange, hosted
// authorization and logout URLs, and the JWKS endpoint location.
package provider

import (
	"context"
	"encoding/json"

	"github.com/sessionworks/authbridge/sessions"
)

// Authentication is the provider's response to a successful code or
// refresh-token exchange. User is the provider-defined profile object and
// is passed through opaquely.
type Authentication struct {
	AccessToken  string                 `json:"access_token"`
	RefreshToken string                 `json:"refresh_token"`
	User         json.RawMessage        `json:"user,omitempty"`
	Impersonator *sessions.Impersonator `json:"impersonator,omitempty"`
	OAuthTokens  json.RawMessage        `json:"oauth_tokens,omitempty"`
}

// AuthenticateWithCodeOpts parameterizes an authorization-code exchange.
type AuthenticateWithCodeOpts struct {
	Code string
}

// AuthenticateWithRefreshTokenOpts parameterizes a refresh-token
// exchange. OrganizationID targets the session at a specific organization
// and is what backs the organization-switch flow.
type AuthenticateWithRefreshTokenOpts struct {
	RefreshToken   string
	OrganizationID string
}

// AuthorizationURLOpts parameterizes the hosted authorization URL.
type AuthorizationURLOpts struct {
	RedirectURI    string
	State          string
	ScreenHint     string
	OrganizationID string
	LoginHint      string
}

// LogoutURLOpts parameterizes the hosted logout URL.
type LogoutURLOpts struct {
	SessionID string
	ReturnTo  string
}

// Client is the surface of the identity provider consumed by this
// adapter. The default implementation is HTTPClient; tests substitute
// fakes.
type Client interface {
	AuthenticateWithCode(ctx context.Context, opts AuthenticateWithCodeOpts) (*Authentication, error)
	AuthenticateWithRefreshToken(ctx context.Context, opts AuthenticateWithRefreshTokenOpts) (*Authentication, error)
	GetAuthorizationURL(opts AuthorizationURLOpts) (string, error)
	GetLogoutURL(opts LogoutURLOpts) (string, error)
	JWKSURL() string
}
