package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoCredential is returned by Describe for an empty credential
var ErrNoCredential = errors.New("no credential")

// Claims holds the displayable claims of a credential
type Claims struct {
	Issuer    string    `json:"issuer,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Nonce     string    `json:"-"`
}

// Describe decodes the claims of a JWT credential for display purposes.
// The signature is NOT verified; the result must never be used for access decisions.
func Describe(credential string) (*Claims, error) {
	if credential == "" {
		return nil, ErrNoCredential
	}
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, mapClaims); err != nil {
		return nil, err
	}

	claims := &Claims{}
	claims.Issuer, _ = mapClaims.GetIssuer()
	claims.Subject, _ = mapClaims.GetSubject()
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	}
	if nonce, ok := mapClaims["nonce"].(string); ok {
		claims.Nonce = nonce
	}
	return claims, nil
}

// DisplayName returns the most readable identifier of the credential's subject
func (claims *Claims) DisplayName() string {
	switch {
	case claims.Name != "" && claims.Email != "":
		return claims.Name + " <" + claims.Email + ">"
	case claims.Email != "":
		return claims.Email
	case claims.Name != "":
		return claims.Name
	default:
		return claims.Subject
	}
}
