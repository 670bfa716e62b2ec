package sdk

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	identity := mustIdentity(t, false, []string{"nutricionista"}, []string{"ver_nino", "crear_historialclinico"})
	creds := &Credentials{AccessToken: "access", TokenType: "Bearer", RefreshToken: "refresh"}

	require.NoError(t, NewSessionStore(kv).Save(ctx, identity, creds))

	// A fresh store over the same backend simulates a process restart.
	record := NewSessionStore(kv).Load(ctx)
	require.NotNil(t, record)
	assert.Equal(t, RecordVersion, record.Version)
	assert.Equal(t, identity, record.Identity)
	assert.Equal(t, creds, record.Credentials)
	assert.False(t, record.SavedAt.IsZero())
}

func TestSessionStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(NewMemoryKV())

	first := mustIdentity(t, true, nil, nil)
	second, err := NewIdentity("8", "Luis", "", false, nil, []string{"ver_alimento"})
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, first, nil))
	require.NoError(t, store.Save(ctx, second, nil))

	record := store.Load(ctx)
	require.NotNil(t, record)
	assert.Equal(t, second, record.Identity)
}

func TestSessionStore_SaveRejectsNilIdentity(t *testing.T) {
	store := NewSessionStore(NewMemoryKV())
	require.Error(t, store.Save(context.Background(), nil, nil))
}

func TestSessionStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(NewMemoryKV())
	require.NoError(t, store.Save(ctx, mustIdentity(t, true, nil, nil), nil))

	require.NoError(t, store.Clear(ctx))
	assert.Nil(t, store.Load(ctx))

	require.NoError(t, store.Clear(ctx))
	assert.Nil(t, store.Load(ctx))
}

func TestSessionStore_MalformedRecordIsPurged(t *testing.T) {
	cases := map[string]string{
		"not json":            `{"version":"1","identity":`,
		"wrong version":       `{"version":"0","identity":{"id":"7"}}`,
		"missing identity":    `{"version":"1"}`,
		"identity without id": `{"version":"1","identity":{"display_name":"x"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			kv := NewMemoryKV()
			require.NoError(t, kv.Set(ctx, SessionKey, []byte(raw)))

			assert.Nil(t, NewSessionStore(kv).Load(ctx))

			_, found, err := kv.Get(ctx, SessionKey)
			require.NoError(t, err)
			assert.False(t, found, "malformed record should be removed")
		})
	}
}

type failingKV struct {
	getErr    error
	deleteErr error
	KeyValue
}

func (f failingKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.KeyValue.Get(ctx, key)
}

func (f failingKV) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.KeyValue.Delete(ctx, key)
}

func TestSessionStore_ReadFailureIsAbsentButNotPurged(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryKV()
	require.NoError(t, NewSessionStore(mem).Save(ctx, mustIdentity(t, true, nil, nil), nil))

	store := NewSessionStore(failingKV{getErr: errors.New("disk on fire"), KeyValue: mem})
	assert.Nil(t, store.Load(ctx))

	_, found, err := mem.Get(ctx, SessionKey)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSessionStore_CustomKey(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewSessionStore(kv, WithStoreKey("other"))
	require.NoError(t, store.Save(ctx, mustIdentity(t, true, nil, nil), nil))

	_, found, _ := kv.Get(ctx, SessionKey)
	assert.False(t, found)
	_, found, _ = kv.Get(ctx, "other")
	assert.True(t, found)
}

func TestSessionStore_CorruptValueIsPurged(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryKV()
	require.NoError(t, NewSessionStore(mem).Save(ctx, mustIdentity(t, true, nil, nil), nil))

	store := NewSessionStore(failingKV{getErr: fmt.Errorf("open: %w", ErrCorruptValue), KeyValue: mem})
	assert.Nil(t, store.Load(ctx))

	_, found, err := mem.Get(ctx, SessionKey)
	require.NoError(t, err)
	assert.False(t, found)
}
