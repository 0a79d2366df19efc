package auth

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// OutcomeKind discriminates the Outcome sum type.
type OutcomeKind int

const (
	// OutcomeContinue carries a body to emit with a success status.
	OutcomeContinue OutcomeKind = iota
	// OutcomeRedirect carries a Location to emit with a redirect status.
	OutcomeRedirect
	// OutcomeFailure carries an error body to emit with an error status.
	OutcomeFailure
)

// Outcome is the result of resolving a request: continue with data,
// redirect, or fail. Redirects are ordinary values here, never panics or
// sentinel errors; Write translates the outcome onto the wire.
type Outcome struct {
	Kind     OutcomeKind
	Status   int
	Header   http.Header
	Body     []byte
	Location string
}

// ContinueOutcome builds a success outcome with a JSON body.
func ContinueOutcome(data any, header http.Header) (*Outcome, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "[ContinueOutcome] marshal body")
	}
	return &Outcome{
		Kind:   OutcomeContinue,
		Status: http.StatusOK,
		Header: cloneHeader(header),
		Body:   body,
	}, nil
}

// RedirectOutcome builds a 302 redirect outcome.
func RedirectOutcome(location string, header http.Header) *Outcome {
	return &Outcome{
		Kind:     OutcomeRedirect,
		Status:   http.StatusFound,
		Header:   cloneHeader(header),
		Location: location,
	}
}

// FailureOutcome builds an error outcome with a JSON body.
func FailureOutcome(status int, data any) *Outcome {
	body, _ := json.Marshal(data)
	return &Outcome{
		Kind:   OutcomeFailure,
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
}

// IsRedirect reports whether the outcome is redirect-class.
func (o *Outcome) IsRedirect() bool {
	return o.Kind == OutcomeRedirect
}

// SetCookie appends a Set-Cookie header to the outcome without
// clobbering existing cookies.
func (o *Outcome) SetCookie(cookie *http.Cookie) {
	if cookie == nil {
		return
	}
	if o.Header == nil {
		o.Header = make(http.Header)
	}
	o.Header.Add("Set-Cookie", cookie.String())
}

// Write emits the outcome as an HTTP response.
func (o *Outcome) Write(w http.ResponseWriter) error {
	for key, values := range o.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}

	switch o.Kind {
	case OutcomeRedirect:
		w.Header().Set("Location", o.Location)
		w.WriteHeader(o.Status)
		return nil
	default:
		if w.Header().Get("Content-Type") == "" && len(o.Body) > 0 {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}
		w.WriteHeader(o.Status)
		if len(o.Body) > 0 {
			if _, err := w.Write(o.Body); err != nil {
				return errors.Wrap(err, "[Outcome.Write] write body")
			}
		}
		return nil
	}
}

func cloneHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for key, values := range h {
		out[key] = append([]string(nil), values...)
	}
	return out
}
