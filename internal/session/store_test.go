package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	t.Run("creates directory with correct permissions", func(t *testing.T) {
		tmpDir := t.TempDir()
		stateDir := filepath.Join(tmpDir, "state")

		store, err := NewStore(stateDir)
		require.NoError(t, err)
		assert.NotNil(t, store)

		info, err := os.Stat(stateDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})

	t.Run("generates a stable install id", func(t *testing.T) {
		tmpDir := t.TempDir()
		store, err := NewStore(tmpDir)
		require.NoError(t, err)

		id := store.InstallID()
		assert.NotEmpty(t, id)

		// Re-opening the store keeps the same id.
		store2, err := NewStore(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, id, store2.InstallID())
	})
}

func TestStore_SaveLoadClear(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load()
	require.ErrorIs(t, err, ErrNoSession)

	sess := &Session{UserID: 42, AccessToken: "access", RefreshToken: "refresh", Scheme: "Bearer"}
	require.NoError(t, store.Save(sess))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, sess, loaded)

	assert.Equal(t, "access", store.AccessToken())
	assert.Equal(t, "refresh", store.RefreshToken())

	store.Clear()
	_, err = store.Load()
	require.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, store.AccessToken())

	// Clearing twice is fine.
	store.Clear()
}

func TestStore_RecordPermissions(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Save(&Session{UserID: 1, AccessToken: "a"}))

	info, err := os.Stat(filepath.Join(tmpDir, "session.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStore_CorruptRecordClearedSilently(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)

	path := filepath.Join(tmpDir, "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err = store.Load()
	require.ErrorIs(t, err, ErrNoSession)

	// The corrupt record is gone.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_RecordWithoutTokenTreatedAsAbsent(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "session.json"), []byte(`{"user_id": 1}`), 0600))

	_, err = store.Load()
	require.ErrorIs(t, err, ErrNoSession)
}
