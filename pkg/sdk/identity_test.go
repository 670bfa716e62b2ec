package sdk

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity_NormalizesSets(t *testing.T) {
	identity, err := NewIdentity(" 12 ", "Ana", "", false,
		[]string{"nutricionista", " admin ", "nutricionista", ""},
		[]string{"ver_nino", "crear_nino", "ver_nino"},
	)
	require.NoError(t, err)

	assert.Equal(t, "12", identity.ID)
	assert.Equal(t, []string{"admin", "nutricionista"}, identity.Roles)
	assert.Equal(t, []string{"crear_nino", "ver_nino"}, identity.Permissions)
	assert.True(t, identity.HasFullAccess())
	assert.True(t, identity.HasRole("admin"))
	assert.True(t, identity.HasPermission("crear_nino"))
}

func TestNewIdentity_RequiresID(t *testing.T) {
	_, err := NewIdentity("  ", "Ana", "", true, nil, nil)
	require.Error(t, err)
}

func TestIdentity_NilReceiver(t *testing.T) {
	var identity *Identity

	assert.False(t, identity.HasFullAccess())
	assert.False(t, identity.HasPermission("ver_nino"))
	assert.False(t, identity.HasRole("admin"))
	assert.Nil(t, identity.Clone())
	assert.Error(t, identity.Validate())
}

func TestIdentity_CloneIsIndependent(t *testing.T) {
	original := mustIdentity(t, false, []string{"nutricionista"}, []string{"ver_nino"})
	clone := original.Clone()
	require.Equal(t, original, clone)

	clone.Permissions[0] = "ver_usuario"
	assert.Equal(t, []string{"ver_nino"}, original.Permissions)
	assert.True(t, original.HasPermission("ver_nino"))
}

func TestIdentity_JSONRoundTrip(t *testing.T) {
	original := mustIdentity(t, false, []string{"admin"}, []string{"ver_nino", "ver_alimento"})

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Identity
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original, &decoded)
	assert.True(t, decoded.HasFullAccess())
}

func TestIdentity_UnmarshalRejectsMissingID(t *testing.T) {
	var decoded Identity
	err := json.Unmarshal([]byte(`{"display_name":"x","roles":["admin"]}`), &decoded)
	require.Error(t, err)
}

func TestDecodeIdentity(t *testing.T) {
	t.Run("backend payload", func(t *testing.T) {
		identity, err := DecodeIdentity(map[string]any{
			"id":           float64(3),
			"correo":       "ana@example.com",
			"nombres":      "Ana",
			"is_superuser": false,
			"roles":        []any{"nutricionista"},
			"permisos":     []any{"ver_nino", "crear_nino"},
		})
		require.NoError(t, err)

		assert.Equal(t, "3", identity.ID)
		assert.Equal(t, "Ana", identity.DisplayName)
		assert.Equal(t, "ana@example.com", identity.Email)
		assert.Equal(t, []string{"nutricionista"}, identity.Roles)
		assert.Equal(t, []string{"crear_nino", "ver_nino"}, identity.Permissions)
	})

	t.Run("missing lists mean no grants", func(t *testing.T) {
		identity, err := DecodeIdentity(map[string]any{"id": "u-1", "correo": "a@x.com"})
		require.NoError(t, err)

		assert.Equal(t, "a@x.com", identity.DisplayName)
		assert.Empty(t, identity.Roles)
		assert.Empty(t, identity.Permissions)
		assert.False(t, Evaluate(identity, "ver_nino"))
	})

	malformed := []struct {
		name    string
		payload map[string]any
	}{
		{"nil payload", nil},
		{"missing id", map[string]any{"correo": "a@x.com"}},
		{"null id", map[string]any{"id": nil}},
		{"fractional id", map[string]any{"id": 1.5}},
		{"roles not a list", map[string]any{"id": 1.0, "roles": "admin"}},
		{"permission not a string", map[string]any{"id": 1.0, "permisos": []any{"ver_nino", 4.0}}},
		{"superuser not a bool", map[string]any{"id": 1.0, "is_superuser": "yes"}},
	}
	for _, tc := range malformed {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := DecodeIdentity(tc.payload)
			require.Error(t, err)
			assert.Nil(t, identity)
			assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
		})
	}
}
