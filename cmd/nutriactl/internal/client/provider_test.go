package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraconstructs/nutria/pkg/sdk"
)

// fakeAPI serves the token endpoint and a user endpoint that requires "Bearer good-token".
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access":  "good-token",
			"refresh": "refresh-token",
			"user": map[string]any{
				"id": 7, "correo": "ana@example.com", "nombres": "Ana",
				"roles": []string{"nutricionista"}, "permisos": []string{"ver_nino"},
			},
		})
	})
	mux.HandleFunc("GET /api/usuarios/usuarios/7/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "correo": "ana@example.com", "nombres": "Ana", "is_active": true})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestProvider(t *testing.T, serverURL string, kv sdk.KeyValue) *Provider {
	t.Helper()
	return NewProvider(serverURL+"/api/", kv, slog.New(slog.DiscardHandler))
}

func TestProvider_LoginThenAuthenticatedCall(t *testing.T) {
	ctx := context.Background()
	server := fakeAPI(t)
	provider := newTestProvider(t, server.URL, sdk.NewMemoryKV())

	_, err := provider.SDKClient(ctx)
	require.ErrorIs(t, err, ErrNotLoggedIn)

	identity, err := provider.Session(ctx).Login(ctx, sdk.LoginRequest{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "7", identity.ID)

	client, err := provider.SDKClient(ctx)
	require.NoError(t, err)

	user, err := client.GetUser(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
}

func TestProvider_RestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	server := fakeAPI(t)
	kv := sdk.NewMemoryKV()

	first := newTestProvider(t, server.URL, kv)
	_, err := first.Session(ctx).Login(ctx, sdk.LoginRequest{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)

	// A new process over the same storage
	second := newTestProvider(t, server.URL, kv)
	session := second.Session(ctx)
	assert.Equal(t, sdk.StateSignedIn, session.State())
	assert.True(t, session.Can("ver_nino"))

	client, err := second.SDKClient(ctx)
	require.NoError(t, err)
	_, err = client.GetUser(ctx, "7")
	require.NoError(t, err)
}

func TestProvider_LogoutStopsSendingToken(t *testing.T) {
	ctx := context.Background()
	server := fakeAPI(t)
	provider := newTestProvider(t, server.URL, sdk.NewMemoryKV())

	_, err := provider.Session(ctx).Login(ctx, sdk.LoginRequest{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)
	client, err := provider.SDKClient(ctx)
	require.NoError(t, err)

	provider.Session(ctx).Logout(ctx)

	_, err = client.GetUser(ctx, "7")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotLoggedIn))
}

func TestProvider_BearerTokenOverride(t *testing.T) {
	ctx := context.Background()
	server := fakeAPI(t)
	provider := newTestProvider(t, server.URL, sdk.NewMemoryKV())
	provider.SetBearerToken("good-token")

	client, err := provider.SDKClient(ctx)
	require.NoError(t, err)
	_, err = client.GetUser(ctx, "7")
	require.NoError(t, err)
}

func TestSessionTokenSource_Expired(t *testing.T) {
	ctx := context.Background()
	kv := sdk.NewMemoryKV()
	identity, err := sdk.NewIdentity("7", "Ana", "", false, nil, nil)
	require.NoError(t, err)
	require.NoError(t, sdk.NewSessionStore(kv).Save(ctx, identity, &sdk.Credentials{
		AccessToken: "old",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))

	provider := NewProvider("http://127.0.0.1:1/api/", kv, slog.New(slog.DiscardHandler))

	_, err = provider.SDKClient(ctx)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = sessionTokenSource{session: provider.Session(ctx)}.Token()
	assert.ErrorIs(t, err, ErrTokenExpired)
}
