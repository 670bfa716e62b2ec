package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// TokenPath is the token endpoint, relative to the API base URL.
	TokenPath = "token/"
	// UsersPath is the user collection, relative to the API base URL.
	UsersPath = "usuarios/usuarios/"
)

// ErrUnauthorized is returned by authenticated calls the backend rejects with 401 or 403.
// Callers holding a session should log out when they see it.
var ErrUnauthorized = errors.New("request rejected by the API: not authorized")

// Client talks to the nutrition backend REST API.
// It implements Authenticator against the token endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ Authenticator = (*Client)(nil)

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient *http.Client
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// NewClient creates a new SDK client that communicates with the API at baseURL
// (e.g. "http://localhost:8000/api/").
// An http.Client with a 10 second timeout is used when one is not supplied.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = defaultHTTPClient()
	}

	return &Client{
		httpClient: opts.HTTPClient,
		baseURL:    baseURL,
	}
}

// BaseURL returns the API base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type tokenResponse struct {
	Access  string         `json:"access"`
	Refresh string         `json:"refresh"`
	User    map[string]any `json:"user"`
}

// Authenticate exchanges an email/password pair for a session token and identity.
// The call is made exactly once; retry policy belongs to the caller.
func (c *Client) Authenticate(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tokenURL, err := url.JoinPath(c.baseURL, TokenPath)
	if err != nil {
		return nil, loginError(ErrTransport, "invalid API base URL", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal login request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, loginError(ErrTransport, "build token request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, loginError(ErrTransport, "", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, loginError(ErrTransport, "read token response", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return nil, loginError(ErrCredentialsRejected, remoteDetail(payload), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, loginError(ErrTransport, resp.Status, nil)
	}

	var tr tokenResponse
	if err := json.Unmarshal(payload, &tr); err != nil {
		return nil, loginError(ErrMalformedResponse, "token response is not JSON", err)
	}
	if tr.Access == "" {
		return nil, loginError(ErrMalformedResponse, "token response has no access token", nil)
	}

	identity, err := DecodeIdentity(tr.User)
	if err != nil {
		return nil, err
	}

	creds, err := CredentialsFromTokens(tr.Access, tr.Refresh)
	if err != nil {
		return nil, loginError(ErrMalformedResponse, "access token", err)
	}

	return &AuthResult{Identity: identity, Credentials: creds}, nil
}

// RemoteUser is the subset of the backend user record the CLI displays.
type RemoteUser struct {
	ID       int    `json:"id"`
	Email    string `json:"correo"`
	Names    string `json:"nombres"`
	IsActive bool   `json:"is_active"`
}

// GetUser fetches a user record. The client's HTTP client must carry the bearer token.
// Returns ErrUnauthorized when the backend rejects the token.
func (c *Client) GetUser(ctx context.Context, id string) (*RemoteUser, error) {
	if id == "" {
		return nil, fmt.Errorf("user id is required")
	}

	userURL, err := url.JoinPath(c.baseURL, UsersPath, id, "/")
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("user %s not found", id)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("user endpoint returned %s", resp.Status)
	}

	var user RemoteUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	return &user, nil
}

// remoteDetail extracts the backend's "detail" message, falling back to the raw body.
func remoteDetail(body []byte) string {
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return detail.Detail
	}
	const maxDetail = 200
	if len(body) > maxDetail {
		return string(body[:maxDetail])
	}
	return string(bytes.TrimSpace(body))
}

// defaultHTTPClient returns an HTTP client with reasonable timeout for API operations.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}
