package client

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/terraconstructs/nutria/pkg/sdk"
)

// ErrNotLoggedIn is returned when an authenticated call is attempted without a session.
var ErrNotLoggedIn = errors.New("not logged in; please run `nutriactl auth login`")

// ErrTokenExpired is returned when the session token is past its expiry.
var ErrTokenExpired = errors.New("access token expired; please run `nutriactl auth login`")

// sessionTokenSource yields the session's current token on every call,
// so logins and logouts are observed by clients created earlier.
type sessionTokenSource struct {
	session *sdk.Session
}

func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	creds := s.session.Credentials()
	if creds == nil {
		return nil, ErrNotLoggedIn
	}
	if creds.IsExpired() {
		return nil, ErrTokenExpired
	}
	return &oauth2.Token{
		AccessToken:  creds.AccessToken,
		TokenType:    creds.TokenType,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.ExpiresAt,
	}, nil
}

// NewAuthenticatedClient creates an http.Client that sends the session's bearer token.
func NewAuthenticatedClient(session *sdk.Session, base http.RoundTripper) *http.Client {
	return newOAuthClient(sessionTokenSource{session: session}, base)
}

// newOAuthClient does not wrap source in oauth2.ReuseTokenSource: the token must
// be re-read on every request.
func newOAuthClient(source oauth2.TokenSource, base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: source, Base: base},
	}
}
