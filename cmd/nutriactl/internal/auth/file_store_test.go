package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraconstructs/nutria/pkg/sdk"
)

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), ".nutria"))
	require.NoError(t, err)

	exerciseKeyValue(t, store)
	exerciseSessionRoundTrip(t, store)
}

func TestFileStore_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".nutria")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	require.NoError(t, store.Set(context.Background(), "session", []byte("{}")))
	path, err := store.Path("session")
	require.NoError(t, err)

	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// No temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../session", "a/b", `a\b`, ".hidden"} {
		assert.Error(t, store.Set(context.Background(), key, []byte("x")), key)
	}
}

func TestFileStore_CorruptFileIsPurged(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Path(sdk.SessionKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0600))

	assert.Nil(t, sdk.NewSessionStore(store).Load(ctx))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
