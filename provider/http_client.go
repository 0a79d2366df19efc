package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sessionworks/authbridge/config"
	"golang.org/x/oauth2"
)

const (
	authenticatePath = "/user_management/authenticate"
	authorizePath    = "/user_management/authorize"
	logoutPath       = "/user_management/sessions/logout"
	jwksPathPrefix   = "/sso/jwks/"

	defaultRequestTimeout = 10 * time.Second
)

// HTTPClient talks to the provider's user-management API over HTTPS,
// authenticating with the configured API key.
type HTTPClient struct {
	baseURL    string
	clientID   string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger zerolog.Logger) HTTPClientOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// NewHTTPClient builds the provider client from resolved configuration.
// Missing client id or API key surfaces here as a ConfigurationError.
func NewHTTPClient(cfg *config.Resolver, options ...HTTPClientOption) (*HTTPClient, error) {
	clientID, err := cfg.ClientID()
	if err != nil {
		return nil, err
	}
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	c := &HTTPClient{
		baseURL:    cfg.APIBaseURL(),
		clientID:   clientID,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

type authenticateRequest struct {
	ClientID       string `json:"client_id"`
	GrantType      string `json:"grant_type"`
	Code           string `json:"code,omitempty"`
	RefreshToken   string `json:"refresh_token,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// AuthenticateWithCode exchanges an authorization code for tokens and the
// user profile.
func (c *HTTPClient) AuthenticateWithCode(ctx context.Context, opts AuthenticateWithCodeOpts) (*Authentication, error) {
	if opts.Code == "" {
		return nil, errors.New("[AuthenticateWithCode] code is required")
	}
	var auth Authentication
	err := c.post(ctx, authenticatePath, authenticateRequest{
		ClientID:  c.clientID,
		GrantType: "authorization_code",
		Code:      opts.Code,
	}, &auth)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticateWithCode] authenticate")
	}
	return &auth, nil
}

// AuthenticateWithRefreshToken exchanges a refresh token for a new token
// pair, optionally re-scoping the session to a target organization.
func (c *HTTPClient) AuthenticateWithRefreshToken(ctx context.Context, opts AuthenticateWithRefreshTokenOpts) (*Authentication, error) {
	if opts.RefreshToken == "" {
		return nil, errors.New("[AuthenticateWithRefreshToken] refresh token is required")
	}
	var auth Authentication
	err := c.post(ctx, authenticatePath, authenticateRequest{
		ClientID:       c.clientID,
		GrantType:      "refresh_token",
		RefreshToken:   opts.RefreshToken,
		OrganizationID: opts.OrganizationID,
	}, &auth)
	if err != nil {
		return nil, err
	}
	return &auth, nil
}

// GetAuthorizationURL builds the hosted authorization URL for the
// AuthKit-hosted sign-in screen.
func (c *HTTPClient) GetAuthorizationURL(opts AuthorizationURLOpts) (string, error) {
	if opts.RedirectURI == "" {
		return "", errors.New("[GetAuthorizationURL] redirect URI is required")
	}

	oauthConfig := oauth2.Config{
		ClientID:    c.clientID,
		RedirectURL: opts.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL: c.baseURL + authorizePath,
		},
	}

	params := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("provider", "authkit"),
	}
	if opts.ScreenHint != "" {
		params = append(params, oauth2.SetAuthURLParam("screen_hint", opts.ScreenHint))
	}
	if opts.OrganizationID != "" {
		params = append(params, oauth2.SetAuthURLParam("organization_id", opts.OrganizationID))
	}
	if opts.LoginHint != "" {
		params = append(params, oauth2.SetAuthURLParam("login_hint", opts.LoginHint))
	}

	return oauthConfig.AuthCodeURL(opts.State, params...), nil
}

// GetLogoutURL builds the hosted logout URL that revokes the provider
// session and optionally redirects afterwards.
func (c *HTTPClient) GetLogoutURL(opts LogoutURLOpts) (string, error) {
	if opts.SessionID == "" {
		return "", errors.New("[GetLogoutURL] session id is required")
	}

	query := url.Values{}
	query.Set("session_id", opts.SessionID)
	if opts.ReturnTo != "" {
		query.Set("return_to", opts.ReturnTo)
	}
	return c.baseURL + logoutPath + "?" + query.Encode(), nil
}

// JWKSURL returns the JWKS endpoint for the configured client id.
func (c *HTTPClient) JWKSURL() string {
	return c.baseURL + jwksPathPrefix + c.clientID
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "provider request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = "unexpected_response"
			apiErr.Description = http.StatusText(resp.StatusCode)
		}
		c.logger.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("code", apiErr.Code).
			Msg("provider request failed")
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}
