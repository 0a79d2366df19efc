package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sessionworks/authbridge/config"
	"github.com/sessionworks/authbridge/metrics"
	"github.com/sessionworks/authbridge/provider"
	"github.com/sessionworks/authbridge/sessions"
	"github.com/sessionworks/authbridge/token"
)

// State is a terminal session-resolution state.
type State string

const (
	// StateAnonymous means no sealed session was present or it could not
	// be unsealed.
	StateAnonymous State = "anonymous"
	// StateValid means the stored access token verified; the session is
	// unchanged and no new cookie is needed.
	StateValid State = "valid"
	// StateRefreshed means the access token was invalid and the refresh
	// exchange succeeded; a renewed cookie must be emitted.
	StateRefreshed State = "refreshed"
	// StateRefreshFailed means the refresh exchange failed; the default
	// terminal action is redirect plus cookie clear.
	StateRefreshFailed State = "refresh_failed"
)

// TokenVerifier checks an access token's signature and expiry, collapsing
// every failure to false. Satisfied by token.Verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) bool
}

// Resolution is the outcome of running the session state machine for one
// request.
type Resolution struct {
	State   State
	Session *sessions.Session
	Claims  *token.Claims
	Sealed  string
	// Headers carries Set-Cookie for the renewed session when State is
	// StateRefreshed.
	Headers http.Header
	// Err is populated when State is StateRefreshFailed.
	Err *SessionRefreshError
}

// Engine runs the per-request session lifecycle: unseal, verify, refresh.
// Each request is resolved independently; token validity is always
// rechecked fresh, and a failed refresh is terminal with no retry.
type Engine struct {
	cfg      *config.Resolver
	provider provider.Client
	verifier TokenVerifier
	codec    *sessions.Codec
	logger   zerolog.Logger
	nowFunc  func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithVerifier overrides the token verifier (primarily for testing).
func WithVerifier(v TokenVerifier) EngineOption {
	return func(e *Engine) {
		e.verifier = v
	}
}

// WithLogger attaches a logger for state-transition tracing.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = now
	}
}

// NewEngine wires the refresh engine from resolved configuration and a
// provider client. The cookie password is read here, so a missing or
// too-short password surfaces as a ConfigurationError at construction.
func NewEngine(cfg *config.Resolver, providerClient provider.Client, options ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("[NewEngine] config resolver is required")
	}
	if providerClient == nil {
		return nil, errors.New("[NewEngine] provider client is required")
	}

	password, err := cfg.CookiePassword()
	if err != nil {
		return nil, err
	}
	codec, err := sessions.NewCodec(password)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		provider: providerClient,
		codec:    codec,
		logger:   zerolog.Nop(),
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.verifier == nil {
		e.verifier = token.NewVerifier(context.Background(), providerClient.JWKSURL())
	}
	return e, nil
}

// Codec exposes the session codec for callback and termination flows.
func (e *Engine) Codec() *sessions.Codec {
	return e.codec
}

// Provider exposes the provider client.
func (e *Engine) Provider() provider.Client {
	return e.provider
}

// CookiePolicy derives the session cookie attributes from configuration.
func (e *Engine) CookiePolicy() sessions.CookiePolicy {
	return sessions.CookiePolicy{
		Name:   e.cfg.CookieName(),
		MaxAge: e.cfg.CookieMaxAge(),
		Secure: e.cfg.CookieSecure(),
	}
}

// Resolve runs the state machine against the request's session store.
func (e *Engine) Resolve(ctx context.Context, store sessions.Store) *Resolution {
	res := e.resolve(ctx, store)
	metrics.ObserveResolution(string(res.State))
	e.logger.Debug().Str("state", string(res.State)).Msg("session resolved")
	return res
}

func (e *Engine) resolve(ctx context.Context, store sessions.Store) *Resolution {
	sealed, ok := store.Get(sessions.SealedKey)
	if !ok || sealed == "" {
		return &Resolution{State: StateAnonymous}
	}

	session, err := e.codec.Unseal(sealed)
	if err != nil {
		// Corrupt or forged seals degrade to anonymous, but are counted
		// separately from a genuinely absent cookie.
		if !errors.Is(err, sessions.ErrNoSession) {
			metrics.ObserveSealFailure()
			e.logger.Debug().Err(err).Msg("session seal rejected")
		}
		return &Resolution{State: StateAnonymous}
	}

	if e.verifier.Verify(ctx, session.AccessToken) {
		claims, err := token.DecodeClaims(session.AccessToken)
		if err != nil {
			// A verified token that fails decoding is a defect upstream;
			// treat the session as unusable rather than guessing.
			return &Resolution{State: StateAnonymous}
		}
		return &Resolution{
			State:   StateValid,
			Session: session,
			Claims:  claims,
			Sealed:  sealed,
		}
	}

	return e.refresh(ctx, store, session, "")
}

// RefreshWithOrganization forces a refresh exchange scoped to the target
// organization, regardless of current token validity. The caller maps
// sso_required/mfa_enrollment causes to a re-authentication redirect.
func (e *Engine) RefreshWithOrganization(ctx context.Context, store sessions.Store, organizationID string) *Resolution {
	sealed, ok := store.Get(sessions.SealedKey)
	if !ok || sealed == "" {
		return &Resolution{State: StateAnonymous}
	}
	session, err := e.codec.Unseal(sealed)
	if err != nil {
		return &Resolution{State: StateAnonymous}
	}
	res := e.refresh(ctx, store, session, organizationID)
	metrics.ObserveResolution(string(res.State))
	return res
}

func (e *Engine) refresh(ctx context.Context, store sessions.Store, session *sessions.Session, organizationID string) *Resolution {
	authn, err := e.provider.AuthenticateWithRefreshToken(ctx, provider.AuthenticateWithRefreshTokenOpts{
		RefreshToken:   session.RefreshToken,
		OrganizationID: organizationID,
	})
	if err != nil {
		metrics.ObserveRefresh("failure")
		e.logger.Debug().Err(err).Msg("refresh exchange failed")
		return &Resolution{
			State: StateRefreshFailed,
			Err:   &SessionRefreshError{Cause: err},
		}
	}

	renewed := &sessions.Session{
		AccessToken:  authn.AccessToken,
		RefreshToken: authn.RefreshToken,
		User:         session.User,
		Impersonator: session.Impersonator,
	}

	sealed, err := e.codec.Seal(renewed)
	if err != nil {
		metrics.ObserveRefresh("failure")
		return &Resolution{
			State: StateRefreshFailed,
			Err:   &SessionRefreshError{Cause: err},
		}
	}

	store.Set(sessions.SealedKey, sealed)
	cookie, err := store.Commit()
	if err != nil {
		metrics.ObserveRefresh("failure")
		return &Resolution{
			State: StateRefreshFailed,
			Err:   &SessionRefreshError{Cause: err},
		}
	}

	headers := make(http.Header)
	headers.Add("Set-Cookie", cookie.String())
	renewed.Headers = headers

	claims, err := token.DecodeClaims(renewed.AccessToken)
	if err != nil {
		metrics.ObserveRefresh("failure")
		return &Resolution{
			State: StateRefreshFailed,
			Err:   &SessionRefreshError{Cause: errors.Wrap(err, "decode refreshed claims")},
		}
	}

	metrics.ObserveRefresh("success")
	return &Resolution{
		State:   StateRefreshed,
		Session: renewed,
		Claims:  claims,
		Sealed:  sealed,
		Headers: headers,
	}
}
