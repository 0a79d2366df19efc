package auth

import (
	"net/http"

	"github.com/sessionworks/authbridge/provider"
	"github.com/sessionworks/authbridge/sessions"
	"github.com/sessionworks/authbridge/token"
)

// SignOutOpts configures SignOut.
type SignOutOpts struct {
	// ReturnTo is where the user lands after the provider-side logout,
	// or directly when no provider session id is recoverable.
	ReturnTo string
}

// SignOut destroys the session cookie unconditionally and redirects: to
// the provider's hosted logout URL when a session id can still be read
// from the cookie, otherwise straight to ReturnTo or "/". The cookie is
// cleared even when the stored session is corrupt or absent.
func (l *Loader) SignOut(r *http.Request, opts SignOutOpts) *Outcome {
	store := newStore(r, l.engine.CookiePolicy())

	var sessionID string
	if sealed, ok := store.Get(sessions.SealedKey); ok && sealed != "" {
		if session, err := l.engine.codec.Unseal(sealed); err == nil {
			if claims, err := token.DecodeClaims(session.AccessToken); err == nil {
				sessionID = claims.SessionID
			}
		}
	}

	destroy := store.Destroy()

	if sessionID != "" {
		logoutURL, err := l.engine.provider.GetLogoutURL(provider.LogoutURLOpts{
			SessionID: sessionID,
			ReturnTo:  opts.ReturnTo,
		})
		if err == nil {
			outcome := RedirectOutcome(logoutURL, nil)
			outcome.SetCookie(destroy)
			return outcome
		}
	}

	target := opts.ReturnTo
	if target == "" {
		target = "/"
	}
	outcome := RedirectOutcome(target, nil)
	outcome.SetCookie(destroy)
	return outcome
}

// SwitchOpts configures SwitchToOrganization.
type SwitchOpts struct {
	// ReturnTo, when set, turns a successful switch into a redirect
	// instead of a structured success payload.
	ReturnTo string
}

type switchPayload struct {
	Success bool     `json:"success"`
	Auth    *Context `json:"auth,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// SwitchToOrganization re-issues the session scoped to the target
// organization via a refresh exchange. SSO or MFA step-up requirements
// redirect to a freshly built authorization URL for that organization;
// any other failure is returned as a structured error outcome. Nothing
// escapes this boundary as a panic or raw error.
func (l *Loader) SwitchToOrganization(r *http.Request, organizationID string, opts SwitchOpts) *Outcome {
	if organizationID == "" {
		return FailureOutcome(http.StatusBadRequest, switchPayload{
			Success: false,
			Error:   "organization id is required",
		})
	}

	store := newStore(r, l.engine.CookiePolicy())
	res := l.engine.RefreshWithOrganization(r.Context(), store, organizationID)

	switch res.State {
	case StateRefreshed:
		authCtx := newContext(res.Session, res.Claims, res.Sealed)
		if opts.ReturnTo != "" {
			return RedirectOutcome(opts.ReturnTo, res.Headers)
		}
		outcome, err := ContinueOutcome(switchPayload{Success: true, Auth: authCtx}, res.Headers)
		if err != nil {
			return FailureOutcome(http.StatusInternalServerError, switchPayload{
				Success: false,
				Error:   err.Error(),
			})
		}
		return outcome

	case StateAnonymous:
		return FailureOutcome(http.StatusUnauthorized, switchPayload{
			Success: false,
			Error:   "no active session",
		})

	case StateRefreshFailed:
		if res.Err != nil && provider.RequiresReauthentication(res.Err.Cause) {
			if outcome := l.reauthenticationRedirect(r, organizationID); outcome != nil {
				return outcome
			}
		}
		message := "session refresh failed"
		if res.Err != nil && res.Err.Cause != nil {
			message = res.Err.Cause.Error()
		}
		return FailureOutcome(http.StatusInternalServerError, switchPayload{
			Success: false,
			Error:   message,
		})

	default:
		return FailureOutcome(http.StatusInternalServerError, switchPayload{
			Success: false,
			Error:   "unexpected session state",
		})
	}
}

// reauthenticationRedirect builds the organization-scoped authorization
// redirect used when the provider demands SSO or MFA enrollment. Returns
// nil when the URL cannot be built, leaving the structured failure path
// to the caller.
func (l *Loader) reauthenticationRedirect(r *http.Request, organizationID string) *Outcome {
	redirectURI, err := l.engine.cfg.RedirectURI()
	if err != nil {
		return nil
	}
	authorizationURL, err := l.engine.provider.GetAuthorizationURL(provider.AuthorizationURLOpts{
		RedirectURI:    redirectURI,
		OrganizationID: organizationID,
		State:          encodeReturnState(r),
	})
	if err != nil {
		return nil
	}
	return RedirectOutcome(authorizationURL, nil)
}
