// Package token verifies provider-issued access tokens against the
// provider's remote key set and decodes their claims.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/sessionworks/authbridge/internal/utils"
)

// Claims are the fields this adapter reads from an access token. They are
// decoded without signature verification; verification happens separately
// through the Verifier.
type Claims struct {
	SessionID      string    // sid
	OrganizationID string    // org_id
	Role           string    // role
	Permissions    []string  // permissions
	Entitlements   []string  // entitlements
	ExpiresAt      time.Time // exp
	Issuer         string    // iss
}

// DecodeClaims parses the token payload without verifying its signature.
// Call it only on tokens that passed Verify, or on tokens freshly issued
// by the provider.
func DecodeClaims(rawToken string) (*Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "[DecodeClaims] parse token")
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("[DecodeClaims] unexpected claims type")
	}

	claims := &Claims{}
	claims.SessionID, _ = mapClaims["sid"].(string)
	claims.OrganizationID, _ = mapClaims["org_id"].(string)
	claims.Role, _ = mapClaims["role"].(string)
	claims.Issuer, _ = mapClaims["iss"].(string)

	if perms, ok := mapClaims["permissions"].([]interface{}); ok {
		claims.Permissions = utils.ToStringSlice(perms)
	}
	if ents, ok := mapClaims["entitlements"].([]interface{}); ok {
		claims.Entitlements = utils.ToStringSlice(ents)
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return claims, nil
}
