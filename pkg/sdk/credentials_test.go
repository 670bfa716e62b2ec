package sdk

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestCredentialsFromTokens_ReadsJWTExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	access := signedToken(t, jwt.MapClaims{"user_id": 7, "exp": exp.Unix()})

	creds, err := CredentialsFromTokens(access, "refresh")
	require.NoError(t, err)

	assert.Equal(t, access, creds.AccessToken)
	assert.Equal(t, "refresh", creds.RefreshToken)
	assert.Equal(t, "Bearer", creds.TokenType)
	assert.WithinDuration(t, exp, creds.ExpiresAt, time.Second)
	assert.Equal(t, time.UTC, creds.ExpiresAt.Location())
	assert.False(t, creds.IsExpired())
}

func TestCredentialsFromTokens_ExpiredToken(t *testing.T) {
	access := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})

	creds, err := CredentialsFromTokens(access, "")
	require.NoError(t, err)
	assert.True(t, creds.IsExpired())
}

func TestCredentialsFromTokens_UnknownExpiry(t *testing.T) {
	cases := map[string]string{
		"opaque token":    "b7a1c0ffee",
		"undecodable jwt": "not.a.jwt",
		"jwt without exp": signedToken(t, jwt.MapClaims{"user_id": 7}),
	}
	for name, access := range cases {
		t.Run(name, func(t *testing.T) {
			creds, err := CredentialsFromTokens(access, "")
			require.NoError(t, err)
			assert.True(t, creds.ExpiresAt.IsZero())
			assert.False(t, creds.IsExpired())
		})
	}
}

func TestCredentialsFromTokens_RequiresAccessToken(t *testing.T) {
	_, err := CredentialsFromTokens("", "refresh")
	require.Error(t, err)
}

func TestCredentials_IsExpiredNil(t *testing.T) {
	var creds *Credentials
	assert.False(t, creds.IsExpired())
}
