package sessions

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when the cookie carries no sealed value at
	// all. Callers treat this the same as an invalid seal, but the two are
	// kept distinct for observability.
	ErrNoSession = errors.New("sessions: no session present")

	// ErrSealExpired is returned by Unseal when the codec was configured
	// with a TTL and the seal is older than it.
	ErrSealExpired = errors.New("sessions: seal expired")
)

// SealError reports a sealed value that could not be decrypted or failed
// authentication. It wraps the underlying cause.
type SealError struct {
	Cause error
}

func (e *SealError) Error() string {
	if e.Cause == nil {
		return "sessions: seal verification failed"
	}
	return fmt.Sprintf("sessions: seal verification failed: %v", e.Cause)
}

func (e *SealError) Unwrap() error { return e.Cause }
