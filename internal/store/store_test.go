package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vBaggio/qronis/internal/store"
)

func TestTokenRoundTrip(t *testing.T) {
	s := store.NewStorage(t.TempDir())

	assert.Empty(t, s.LoadToken())

	require.NoError(t, s.SaveToken("tok-123"))
	assert.Equal(t, "tok-123", s.LoadToken())

	// Replacing overwrites wholesale.
	require.NoError(t, s.SaveToken("tok-456"))
	assert.Equal(t, "tok-456", s.LoadToken())

	require.NoError(t, s.ClearToken())
	assert.Empty(t, s.LoadToken())
}

func TestClearToken_Idempotent(t *testing.T) {
	s := store.NewStorage(t.TempDir())
	require.NoError(t, s.ClearToken())
	require.NoError(t, s.ClearToken())
}

func TestTokenFilePermissions(t *testing.T) {
	dir := t.TempDir()
	s := store.NewStorage(dir)
	require.NoError(t, s.SaveToken("secret"))

	info, err := os.Stat(filepath.Join(dir, store.TokenKey))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestAppStateRoundTrip(t *testing.T) {
	s := store.NewStorage(t.TempDir())

	state, err := s.LoadAppState()
	assert.Error(t, err)
	assert.Empty(t, state.LastRunVersion)

	state.LastRunVersion = "v0.3.0"
	require.NoError(t, s.SaveAppState(state))

	loaded, err := s.LoadAppState()
	require.NoError(t, err)
	assert.Equal(t, "v0.3.0", loaded.LastRunVersion)
}
