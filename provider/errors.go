package provider

import (
	"errors"
	"fmt"
)

// Error codes the provider returns on refresh-token exchange when the
// user must re-authenticate interactively instead of failing hard.
const (
	ErrorCodeSSORequired   = "sso_required"
	ErrorCodeMFAEnrollment = "mfa_enrollment"
)

// APIError is a structured error response from the provider API.
type APIError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
	Status      int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("provider: %s (%s)", e.Description, e.Code)
	}
	return fmt.Sprintf("provider: request failed with %q", e.Code)
}

// RequiresReauthentication reports whether err carries a provider error
// code that must be resolved by sending the user back through the hosted
// authorization flow (SSO step-up or MFA enrollment).
func RequiresReauthentication(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == ErrorCodeSSORequired || apiErr.Code == ErrorCodeMFAEnrollment
}
