package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sessionworks/authbridge/auth"
	"github.com/sessionworks/authbridge/config"
	"github.com/sessionworks/authbridge/provider"
	"github.com/sessionworks/authbridge/sessions"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "client_123"
	testAPIKey      = "sk_test_abcdefgh"
	testRedirectURI = "http://localhost:3000/callback"
	testPassword    = "a-cookie-password-of-32-chars-ok"
	testCookieName  = "wos-session"

	testAuthorizeURL = "https://hosted.example.com/authorize"
	testLogoutURL    = "https://hosted.example.com/logout"
)

var testUserJSON = json.RawMessage(`{"id":"user_01","email":"jane@example.com"}`)

// fakeProvider implements provider.Client with canned responses and call
// accounting.
type fakeProvider struct {
	refreshCalls int
	lastRefresh  provider.AuthenticateWithRefreshTokenOpts
	refreshAuthn *provider.Authentication
	refreshErr   error

	codeCalls int
	lastCode  provider.AuthenticateWithCodeOpts
	codeAuthn *provider.Authentication
	codeErr   error

	lastAuthorizationOpts provider.AuthorizationURLOpts
}

func (f *fakeProvider) AuthenticateWithCode(_ context.Context, opts provider.AuthenticateWithCodeOpts) (*provider.Authentication, error) {
	f.codeCalls++
	f.lastCode = opts
	if f.codeErr != nil {
		return nil, f.codeErr
	}
	return f.codeAuthn, nil
}

func (f *fakeProvider) AuthenticateWithRefreshToken(_ context.Context, opts provider.AuthenticateWithRefreshTokenOpts) (*provider.Authentication, error) {
	f.refreshCalls++
	f.lastRefresh = opts
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshAuthn, nil
}

func (f *fakeProvider) GetAuthorizationURL(opts provider.AuthorizationURLOpts) (string, error) {
	f.lastAuthorizationOpts = opts
	query := url.Values{}
	query.Set("client_id", testClientID)
	query.Set("redirect_uri", opts.RedirectURI)
	if opts.State != "" {
		query.Set("state", opts.State)
	}
	if opts.OrganizationID != "" {
		query.Set("organization_id", opts.OrganizationID)
	}
	return testAuthorizeURL + "?" + query.Encode(), nil
}

func (f *fakeProvider) GetLogoutURL(opts provider.LogoutURLOpts) (string, error) {
	query := url.Values{}
	query.Set("session_id", opts.SessionID)
	if opts.ReturnTo != "" {
		query.Set("return_to", opts.ReturnTo)
	}
	return testLogoutURL + "?" + query.Encode(), nil
}

func (f *fakeProvider) JWKSURL() string {
	return "https://api.example.test/sso/jwks/" + testClientID
}

// fakeVerifier reports tokens valid only when explicitly allowed.
type fakeVerifier struct {
	valid map[string]bool
}

func (f *fakeVerifier) Verify(_ context.Context, rawToken string) bool {
	return f.valid[rawToken]
}

// testFixture bundles the engine, loader and collaborators under test.
type testFixture struct {
	cfg      *config.Resolver
	provider *fakeProvider
	verifier *fakeVerifier
	engine   *auth.Engine
	loader   *auth.Loader
	codec    *sessions.Codec
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	cfg := config.NewWithSource(nil,
		config.WithClientID(testClientID),
		config.WithAPIKey(testAPIKey),
		config.WithRedirectURI(testRedirectURI),
		config.WithCookiePassword(testPassword),
	)

	fp := &fakeProvider{}
	fv := &fakeVerifier{valid: make(map[string]bool)}

	engine, err := auth.NewEngine(cfg, fp, auth.WithVerifier(fv))
	require.NoError(t, err)

	codec, err := sessions.NewCodec(testPassword)
	require.NoError(t, err)

	return &testFixture{
		cfg:      cfg,
		provider: fp,
		verifier: fv,
		engine:   engine,
		loader:   auth.NewLoader(engine),
		codec:    codec,
	}
}

// mintToken signs a throwaway HS256 token carrying the adapter's claims.
// Signature validity is irrelevant here; the fake verifier decides.
func mintToken(t *testing.T, sid, orgID, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sid":          sid,
		"org_id":       orgID,
		"role":         role,
		"permissions":  []string{"posts:read"},
		"entitlements": []string{"audit-logs"},
		"iss":          "https://api.workos.com",
		"exp":          exp.Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-secret"))
	require.NoError(t, err)
	return raw
}

// requestWithSession builds a GET request carrying the sealed session.
func (f *testFixture) requestWithSession(t *testing.T, target string, session *sessions.Session) *http.Request {
	t.Helper()
	sealed, err := f.codec.Seal(session)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.AddCookie(&http.Cookie{Name: testCookieName, Value: sealed})
	return r
}

// validSession returns a session whose access token the fake verifier
// accepts.
func (f *testFixture) validSession(t *testing.T) (*sessions.Session, string) {
	t.Helper()
	accessToken := mintToken(t, "session_01", "org_01", "member", time.Now().Add(time.Hour))
	f.verifier.valid[accessToken] = true
	return &sessions.Session{
		AccessToken:  accessToken,
		RefreshToken: "refresh_01",
		User:         testUserJSON,
	}, accessToken
}

// expiredSession returns a session whose access token fails verification
// and the refreshed authentication the fake provider will hand back.
func (f *testFixture) expiredSession(t *testing.T) (*sessions.Session, string) {
	t.Helper()
	staleToken := mintToken(t, "session_01", "org_01", "member", time.Now().Add(-time.Hour))
	newToken := mintToken(t, "session_01", "org_01", "member", time.Now().Add(time.Hour))
	f.provider.refreshAuthn = &provider.Authentication{
		AccessToken:  newToken,
		RefreshToken: "refresh_02",
	}
	return &sessions.Session{
		AccessToken:  staleToken,
		RefreshToken: "refresh_01",
		User:         testUserJSON,
	}, newToken
}
