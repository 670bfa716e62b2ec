package sdk

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials represents the session token relayed from the authentication service.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// IsExpired reports whether the access token is past its expiry.
// Tokens without a known expiry never report expired; the remote API is the judge.
func (c *Credentials) IsExpired() bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt)
}

// CredentialsFromTokens wraps the tokens returned at login.
// When the access token is a JWT, its exp claim becomes ExpiresAt. The signature is not
// verified here; the backend verifies it on every authenticated call.
func CredentialsFromTokens(access, refresh string) (*Credentials, error) {
	if access == "" {
		return nil, fmt.Errorf("access token is empty")
	}

	creds := &Credentials{
		AccessToken:  access,
		TokenType:    "Bearer",
		RefreshToken: refresh,
	}

	expiresAt, err := tokenExpiry(access)
	if err != nil {
		return nil, err
	}
	creds.ExpiresAt = expiresAt

	return creds, nil
}

func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			// Opaque session token, expiry unknown.
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.UTC(), nil
}
