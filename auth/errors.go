package auth

import "fmt"

// SessionRefreshError reports a failed refresh-token exchange. It is a
// distinguished type, not a plain error, so the loader can route it
// through the OnSessionRefreshError hook before falling back to the
// default redirect-and-clear behaviour.
type SessionRefreshError struct {
	Cause error
}

func (e *SessionRefreshError) Error() string {
	if e.Cause == nil {
		return "auth: session refresh failed"
	}
	return fmt.Sprintf("auth: session refresh failed: %v", e.Cause)
}

func (e *SessionRefreshError) Unwrap() error { return e.Cause }
