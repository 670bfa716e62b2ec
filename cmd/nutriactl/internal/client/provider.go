package client

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/terraconstructs/nutria/pkg/sdk"
)

// Provider yields the process session and the HTTP and SDK clients built on it.
type Provider struct {
	serverURL   string
	kv          sdk.KeyValue
	logger      *slog.Logger
	transport   http.RoundTripper
	bearerToken string // ephemeral token that bypasses the session (for testing)

	sessionOnce sync.Once
	session     *sdk.Session

	sdkOnce   sync.Once
	sdkClient *sdk.Client
}

// NewProvider constructs a Provider bound to the API at serverURL, persisting the session in kv.
func NewProvider(serverURL string, kv sdk.KeyValue, logger *slog.Logger) *Provider {
	return &Provider{
		serverURL: serverURL,
		kv:        kv,
		logger:    logger,
		transport: http.DefaultTransport,
	}
}

// SetBearerToken injects an ephemeral bearer token for testing (bypasses the session).
func (p *Provider) SetBearerToken(token string) {
	p.bearerToken = token
}

// ServerURL returns the API base URL.
func (p *Provider) ServerURL() string {
	return p.serverURL
}

// Session returns the process-wide session, restoring any persisted identity on first use.
func (p *Provider) Session(ctx context.Context) *sdk.Session {
	p.sessionOnce.Do(func() {
		authenticator := sdk.NewClient(p.serverURL, sdk.WithHTTPClient(&http.Client{
			Transport: p.transport,
			Timeout:   10 * time.Second,
		}))
		store := sdk.NewSessionStore(p.kv, sdk.WithStoreLogger(p.logger))
		p.session = sdk.NewSession(authenticator, store, sdk.WithLogger(p.logger))

		if p.session.Restore(ctx) {
			p.logger.Debug("restored session", "principal_id", p.session.CurrentIdentity().ID)
		}
	})
	return p.session
}

// HTTPClient returns an http.Client that authenticates with the current session token.
func (p *Provider) HTTPClient(ctx context.Context) *http.Client {
	if p.bearerToken != "" {
		return newOAuthClient(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: p.bearerToken,
			TokenType:   "Bearer",
		}), p.transport)
	}
	return NewAuthenticatedClient(p.Session(ctx), p.transport)
}

// SDKClient returns an authenticated SDK client backed by HTTPClient.
// It fails fast with ErrNotLoggedIn or ErrTokenExpired when no usable token is held.
func (p *Provider) SDKClient(ctx context.Context) (*sdk.Client, error) {
	if p.bearerToken == "" {
		creds := p.Session(ctx).Credentials()
		if creds == nil {
			return nil, ErrNotLoggedIn
		}
		if creds.IsExpired() {
			return nil, ErrTokenExpired
		}
	}

	p.sdkOnce.Do(func() {
		httpClient := p.HTTPClient(ctx)
		httpClient.Timeout = 10 * time.Second
		p.sdkClient = sdk.NewClient(p.serverURL, sdk.WithHTTPClient(httpClient))
	})
	return p.sdkClient, nil
}
