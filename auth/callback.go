package auth

import (
	"net/http"

	"github.com/sessionworks/authbridge/provider"
	"github.com/sessionworks/authbridge/sessions"
)

type callbackError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// CallbackHandler serves the OAuth redirect URI: it exchanges
// ?code=&state= for a session, seals it into the cookie and redirects to
// the return pathname embedded in the state parameter. Failures produce
// a structured JSON error with status 500.
func (l *Loader) CallbackHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = l.handleCallback(r).Write(w)
	})
}

func (l *Loader) handleCallback(r *http.Request) *Outcome {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		return FailureOutcome(http.StatusInternalServerError, callbackError{
			Error:       errParam,
			Description: query.Get("error_description"),
		})
	}

	code := query.Get("code")
	if code == "" {
		return FailureOutcome(http.StatusInternalServerError, callbackError{
			Error:       "invalid_callback",
			Description: "missing code parameter",
		})
	}

	authn, err := l.engine.provider.AuthenticateWithCode(r.Context(), provider.AuthenticateWithCodeOpts{
		Code: code,
	})
	if err != nil {
		return FailureOutcome(http.StatusInternalServerError, callbackError{
			Error:       "authentication_failed",
			Description: err.Error(),
		})
	}

	session := &sessions.Session{
		AccessToken:  authn.AccessToken,
		RefreshToken: authn.RefreshToken,
		User:         authn.User,
		Impersonator: authn.Impersonator,
	}

	sealed, err := l.engine.codec.Seal(session)
	if err != nil {
		return FailureOutcome(http.StatusInternalServerError, callbackError{
			Error:       "session_seal_failed",
			Description: err.Error(),
		})
	}

	store := newStore(r, l.engine.CookiePolicy())
	store.Set(sessions.SealedKey, sealed)
	cookie, err := store.Commit()
	if err != nil {
		return FailureOutcome(http.StatusInternalServerError, callbackError{
			Error:       "session_commit_failed",
			Description: err.Error(),
		})
	}

	outcome := RedirectOutcome(decodeReturnPathname(query.Get("state")), nil)
	outcome.SetCookie(cookie)
	return outcome
}
