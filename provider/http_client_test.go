package provider_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/sessionworks/authbridge/config"
	"github.com/sessionworks/authbridge/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "client_123"
	testAPIKey   = "sk_test_abcdefgh"
)

// capturedRequest records what the client actually sent so assertions run
// on the test goroutine after the call returns.
type capturedRequest struct {
	method        string
	path          string
	authorization string
	contentType   string
	body          map[string]string
}

func capture(into *capturedRequest, status int, response string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		into.method = r.Method
		into.path = r.URL.Path
		into.authorization = r.Header.Get("Authorization")
		into.contentType = r.Header.Get("Content-Type")
		into.body = map[string]string{}
		_ = json.NewDecoder(r.Body).Decode(&into.body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}
}

func clientFor(t *testing.T, server *httptest.Server) *provider.HTTPClient {
	t.Helper()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := config.NewWithSource(nil,
		config.WithClientID(testClientID),
		config.WithAPIKey(testAPIKey),
		config.WithAPIHostname(host),
		config.WithAPIHTTPS(false),
		config.WithAPIPort(port),
	)

	client, err := provider.NewHTTPClient(cfg)
	require.NoError(t, err)
	return client
}

func offlineClient(t *testing.T) *provider.HTTPClient {
	t.Helper()
	cfg := config.NewWithSource(nil,
		config.WithClientID(testClientID),
		config.WithAPIKey(testAPIKey),
	)
	client, err := provider.NewHTTPClient(cfg)
	require.NoError(t, err)
	return client
}

func TestAuthenticateWithCodeRequestShape(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(capture(&captured, http.StatusOK,
		`{"access_token":"access_01","refresh_token":"refresh_01","user":{"id":"user_01"}}`))
	t.Cleanup(server.Close)

	client := clientFor(t, server)
	authn, err := client.AuthenticateWithCode(context.Background(), provider.AuthenticateWithCodeOpts{
		Code: "auth_code_01",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/user_management/authenticate", captured.path)
	assert.Equal(t, "Bearer "+testAPIKey, captured.authorization)
	assert.Equal(t, "application/json", captured.contentType)
	assert.Equal(t, testClientID, captured.body["client_id"])
	assert.Equal(t, "authorization_code", captured.body["grant_type"])
	assert.Equal(t, "auth_code_01", captured.body["code"])

	assert.Equal(t, "access_01", authn.AccessToken)
	assert.Equal(t, "refresh_01", authn.RefreshToken)
	assert.JSONEq(t, `{"id":"user_01"}`, string(authn.User))
}

func TestAuthenticateWithRefreshTokenRequestShape(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(capture(&captured, http.StatusOK,
		`{"access_token":"access_02","refresh_token":"refresh_02"}`))
	t.Cleanup(server.Close)

	client := clientFor(t, server)
	authn, err := client.AuthenticateWithRefreshToken(context.Background(), provider.AuthenticateWithRefreshTokenOpts{
		RefreshToken:   "refresh_01",
		OrganizationID: "org_02",
	})
	require.NoError(t, err)

	assert.Equal(t, "/user_management/authenticate", captured.path)
	assert.Equal(t, "refresh_token", captured.body["grant_type"])
	assert.Equal(t, "refresh_01", captured.body["refresh_token"])
	assert.Equal(t, "org_02", captured.body["organization_id"])
	assert.Equal(t, "access_02", authn.AccessToken)
}

func TestAuthenticateDecodesAPIError(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(capture(&captured, http.StatusUnauthorized,
		`{"error":"sso_required","error_description":"organization enforces sso"}`))
	t.Cleanup(server.Close)

	client := clientFor(t, server)
	_, err := client.AuthenticateWithRefreshToken(context.Background(), provider.AuthenticateWithRefreshTokenOpts{
		RefreshToken: "refresh_01",
	})
	require.Error(t, err)

	var apiErr *provider.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, provider.ErrorCodeSSORequired, apiErr.Code)
	assert.Equal(t, "organization enforces sso", apiErr.Description)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.True(t, provider.RequiresReauthentication(err))
}

func TestAuthenticateNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream melted", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := clientFor(t, server)
	_, err := client.AuthenticateWithCode(context.Background(), provider.AuthenticateWithCodeOpts{
		Code: "auth_code_01",
	})
	require.Error(t, err)

	var apiErr *provider.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "unexpected_response", apiErr.Code)
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), apiErr.Description)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.False(t, provider.RequiresReauthentication(err))
}

func TestAuthenticateInputValidation(t *testing.T) {
	client := offlineClient(t)

	_, err := client.AuthenticateWithCode(context.Background(), provider.AuthenticateWithCodeOpts{})
	require.Error(t, err)

	_, err = client.AuthenticateWithRefreshToken(context.Background(), provider.AuthenticateWithRefreshTokenOpts{})
	require.Error(t, err)
}

func TestGetAuthorizationURL(t *testing.T) {
	client := offlineClient(t)

	raw, err := client.GetAuthorizationURL(provider.AuthorizationURLOpts{
		RedirectURI:    "https://app.example.com/callback",
		State:          "state_01",
		ScreenHint:     "sign-up",
		OrganizationID: "org_01",
		LoginHint:      "jane@example.com",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/user_management/authorize", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "authkit", query.Get("provider"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, testClientID, query.Get("client_id"))
	assert.Equal(t, "https://app.example.com/callback", query.Get("redirect_uri"))
	assert.Equal(t, "state_01", query.Get("state"))
	assert.Equal(t, "sign-up", query.Get("screen_hint"))
	assert.Equal(t, "org_01", query.Get("organization_id"))
	assert.Equal(t, "jane@example.com", query.Get("login_hint"))
}

func TestGetAuthorizationURLOmitsOptionalParams(t *testing.T) {
	client := offlineClient(t)

	raw, err := client.GetAuthorizationURL(provider.AuthorizationURLOpts{
		RedirectURI: "https://app.example.com/callback",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "authkit", query.Get("provider"))
	assert.False(t, query.Has("screen_hint"))
	assert.False(t, query.Has("organization_id"))
	assert.False(t, query.Has("login_hint"))

	_, err = client.GetAuthorizationURL(provider.AuthorizationURLOpts{})
	require.Error(t, err, "redirect URI is mandatory")
}

func TestGetLogoutURL(t *testing.T) {
	client := offlineClient(t)

	raw, err := client.GetLogoutURL(provider.LogoutURLOpts{
		SessionID: "session_01",
		ReturnTo:  "https://app.example.com/",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/user_management/sessions/logout", parsed.Path)
	assert.Equal(t, "session_01", parsed.Query().Get("session_id"))
	assert.Equal(t, "https://app.example.com/", parsed.Query().Get("return_to"))

	_, err = client.GetLogoutURL(provider.LogoutURLOpts{})
	require.Error(t, err, "session id is mandatory")
}

func TestJWKSURL(t *testing.T) {
	client := offlineClient(t)
	assert.Equal(t, "https://api.workos.com/sso/jwks/"+testClientID, client.JWKSURL())
}
