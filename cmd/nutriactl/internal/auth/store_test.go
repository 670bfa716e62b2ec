package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraconstructs/nutria/pkg/sdk"
)

// exerciseKeyValue checks the sdk.KeyValue contract every backend must honor.
func exerciseKeyValue(t *testing.T, kv sdk.KeyValue) {
	t.Helper()
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "session")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, "session", []byte(`{"version":"1"}`)))
	value, found, err := kv.Get(ctx, "session")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"version":"1"}`), value)

	require.NoError(t, kv.Set(ctx, "session", []byte(`{"version":"2"}`)))
	value, _, err = kv.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":"2"}`), value)

	require.NoError(t, kv.Delete(ctx, "session"))
	_, found, err = kv.Get(ctx, "session")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is not an error
	require.NoError(t, kv.Delete(ctx, "session"))
}

// exerciseSessionRoundTrip saves an identity through one SessionStore and loads it through another.
func exerciseSessionRoundTrip(t *testing.T, kv sdk.KeyValue) {
	t.Helper()
	ctx := context.Background()

	identity, err := sdk.NewIdentity("7", "Ana", "ana@example.com", false,
		[]string{"nutricionista"}, []string{"ver_nino", "crear_historialclinico"})
	require.NoError(t, err)

	require.NoError(t, sdk.NewSessionStore(kv).Save(ctx, identity, &sdk.Credentials{AccessToken: "t", TokenType: "Bearer"}))

	record := sdk.NewSessionStore(kv).Load(ctx)
	require.NotNil(t, record)
	assert.Equal(t, identity, record.Identity)
}
