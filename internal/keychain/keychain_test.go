package keychain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyring(t *testing.T) {
	keyring.MockInit()
	var s Keyring

	_, err := s.Get("http://a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("http://a", "tok"))
	got, err := s.Get("http://a")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, s.Delete("http://a"))
	require.NoError(t, s.Delete("http://a"), "deleting twice is fine")
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.yaml")
	s := NewFile(path)

	_, err := s.Get("http://a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("http://a", "one"))
	require.NoError(t, s.Set("http://b", "two"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := NewFile(path).Get("http://b")
	require.NoError(t, err)
	assert.Equal(t, "two", got)

	require.NoError(t, s.Delete("http://a"))
	_, err = s.Get("http://a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFallback_UsesFileWhenKeyringUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no dbus session"))
	dir := t.TempDir()
	s := Default(dir)

	require.NoError(t, s.Set("http://a", "tok"))
	got, err := s.Get("http://a")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	_, err = os.Stat(filepath.Join(dir, "tokens.yaml"))
	assert.NoError(t, err)

	require.NoError(t, s.Delete("http://a"))
	_, err = s.Get("http://a")
	assert.Error(t, err)
}

func TestFallback_PrefersKeyring(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	s := Default(dir)

	require.NoError(t, s.Set("http://a", "tok"))
	_, err := os.Stat(filepath.Join(dir, "tokens.yaml"))
	assert.True(t, os.IsNotExist(err), "token stays out of the file when the keyring works")

	got, err := s.Get("http://a")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
}
