package auth

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sessionworks/authbridge/provider"
	"github.com/sessionworks/authbridge/sessions"
)

// Loader is the request-handling facade: it wires configuration, the
// cookie store and the refresh engine together, applies the
// ensure-signed-in policy, invokes caller handlers with a normalized auth
// context and merges their output with auth data and session cookies.
type Loader struct {
	engine *Engine
}

// NewLoader builds a Loader around a refresh engine.
func NewLoader(engine *Engine) *Loader {
	return &Loader{engine: engine}
}

// Engine exposes the underlying refresh engine.
func (l *Loader) Engine() *Engine {
	return l.engine
}

type loadOptions struct {
	ensureSignedIn   bool
	debug            bool
	store            sessions.Store
	screenHint       string
	onRefreshSuccess func(session *sessions.Session)
	onRefreshError   func(err *SessionRefreshError, r *http.Request) *Outcome
}

// Option configures a single Load/LoadWith call.
type Option func(*loadOptions)

// EnsureSignedIn redirects anonymous requests to the hosted
// authorization screen instead of producing the unauthorized shape.
func EnsureSignedIn() Option {
	return func(o *loadOptions) {
		o.ensureSignedIn = true
	}
}

// Debug enables diagnostic tracing of state transitions for this call.
func Debug() Option {
	return func(o *loadOptions) {
		o.debug = true
	}
}

// WithStore overrides the default cookie-backed session store for this
// call.
func WithStore(store sessions.Store) Option {
	return func(o *loadOptions) {
		o.store = store
	}
}

// WithScreenHint selects the hosted screen ("sign-in" or "sign-up") used
// when EnsureSignedIn redirects.
func WithScreenHint(hint string) Option {
	return func(o *loadOptions) {
		o.screenHint = hint
	}
}

// OnSessionRefreshSuccess registers a callback invoked after a
// successful refresh exchange, with the renewed session.
func OnSessionRefreshSuccess(fn func(session *sessions.Session)) Option {
	return func(o *loadOptions) {
		o.onRefreshSuccess = fn
	}
}

// OnSessionRefreshError registers a callback invoked when the refresh
// exchange fails. A non-nil returned outcome replaces the default
// redirect-and-clear-cookie handling.
func OnSessionRefreshError(fn func(err *SessionRefreshError, r *http.Request) *Outcome) Option {
	return func(o *loadOptions) {
		o.onRefreshError = fn
	}
}

// Load is the bare form: it resolves the auth state and returns an
// outcome carrying just the auth context plus any renewed cookie header.
func (l *Loader) Load(r *http.Request, opts ...Option) (*Outcome, error) {
	authCtx, headers, short, err := l.resolveRequest(r, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	if short != nil {
		return short, nil
	}
	return ContinueOutcome(authCtx.MergeFields(), headers)
}

// LoadWith is the wrapped form: it resolves the auth state, invokes the
// handler with the request and auth context, and merges the handler's
// result with auth data and session cookie headers. Handler errors
// propagate unmodified.
func (l *Loader) LoadWith(r *http.Request, handler HandlerFunc, opts ...Option) (*Outcome, error) {
	authCtx, headers, short, err := l.resolveRequest(r, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	if short != nil {
		return short, nil
	}

	result, err := handler(HandlerArgs{Request: r, Auth: authCtx})
	if err != nil {
		return nil, err
	}
	return mergeResult(result, authCtx, headers)
}

func applyOptions(opts []Option) *loadOptions {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// resolveRequest runs the state machine and applies loader policy. It
// returns either an auth context plus headers to merge, or a
// short-circuit outcome (sign-in redirect, refresh-failure handling).
func (l *Loader) resolveRequest(r *http.Request, o *loadOptions) (*Context, http.Header, *Outcome, error) {
	store := o.store
	if store == nil {
		store = newStore(r, l.engine.CookiePolicy())
	}

	res := l.engine.Resolve(r.Context(), store)
	if o.debug {
		log.Debug().
			Str("state", string(res.State)).
			Str("path", r.URL.Path).
			Msg("authbridge: session resolved")
	}

	switch res.State {
	case StateValid:
		return newContext(res.Session, res.Claims, res.Sealed), nil, nil, nil

	case StateRefreshed:
		if o.onRefreshSuccess != nil {
			o.onRefreshSuccess(res.Session)
		}
		return newContext(res.Session, res.Claims, res.Sealed), res.Headers, nil, nil

	case StateRefreshFailed:
		if o.onRefreshError != nil {
			if outcome := o.onRefreshError(res.Err, r); outcome != nil {
				return nil, nil, outcome, nil
			}
		}
		outcome := RedirectOutcome("/", nil)
		outcome.SetCookie(store.Destroy())
		return nil, nil, outcome, nil

	case StateAnonymous:
		if o.ensureSignedIn {
			outcome, err := l.signInRedirect(r, store, o)
			if err != nil {
				return nil, nil, nil, err
			}
			return nil, nil, outcome, nil
		}
		return Anonymous(), nil, nil, nil

	default:
		return Anonymous(), nil, nil, nil
	}
}

// signInRedirect builds the redirect to the hosted authorization screen,
// carrying a return-path state parameter and clearing any stale cookie.
func (l *Loader) signInRedirect(r *http.Request, store sessions.Store, o *loadOptions) (*Outcome, error) {
	redirectURI, err := l.engine.cfg.RedirectURI()
	if err != nil {
		return nil, err
	}

	authorizationURL, err := l.engine.provider.GetAuthorizationURL(provider.AuthorizationURLOpts{
		RedirectURI: redirectURI,
		State:       encodeReturnState(r),
		ScreenHint:  o.screenHint,
	})
	if err != nil {
		return nil, err
	}

	outcome := RedirectOutcome(authorizationURL, nil)
	outcome.SetCookie(store.Destroy())
	return outcome, nil
}
