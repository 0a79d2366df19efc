package token

import (
	"context"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Verifier checks access-token signatures against the provider's JWKS
// endpoint. Key-set fetching and caching is handled by go-oidc's remote
// key set; each Verify call re-checks the token, there is no per-token
// result caching.
type Verifier struct {
	keySet  oidc.KeySet
	nowFunc func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithKeySet overrides the remote key set (primarily for testing).
func WithKeySet(keySet oidc.KeySet) VerifierOption {
	return func(v *Verifier) {
		v.keySet = keySet
	}
}

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.nowFunc = now
	}
}

// NewVerifier builds a Verifier for the given JWKS URL. The context
// governs the lifetime of background key-set refreshes.
func NewVerifier(ctx context.Context, jwksURL string, options ...VerifierOption) *Verifier {
	v := &Verifier{
		keySet:  oidc.NewRemoteKeySet(ctx, jwksURL),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// Verify reports whether the token carries a valid signature and has not
// expired. Every failure mode (network, signature, malformed token,
// expiry) collapses to false; this method never propagates an error to
// the caller.
func (v *Verifier) Verify(ctx context.Context, rawToken string) bool {
	if strings.TrimSpace(rawToken) == "" {
		return false
	}

	if _, err := v.keySet.VerifySignature(ctx, rawToken); err != nil {
		return false
	}

	claims, err := DecodeClaims(rawToken)
	if err != nil {
		return false
	}
	if !claims.ExpiresAt.IsZero() && v.nowFunc().After(claims.ExpiresAt) {
		return false
	}

	return true
}
