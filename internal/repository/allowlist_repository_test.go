package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowListAddRemoveContains(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewAllowListRepo(dir)
	require.NoError(t, err)

	assert.False(t, repo.Contains("972541234567"))

	require.NoError(t, repo.Add("972541234567"))
	assert.True(t, repo.Contains("972541234567"))

	// Idempotent add reports a no-op.
	assert.ErrorIs(t, repo.Add("972541234567"), ErrAlreadyPresent)

	require.NoError(t, repo.Remove("972541234567"))
	assert.False(t, repo.Contains("972541234567"))

	// Removing an absent phone reports a no-op.
	assert.ErrorIs(t, repo.Remove("972541234567"), ErrPhoneNotFound)
}

func TestAllowListReloadAndFormat(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewAllowListRepo(dir)
	require.NoError(t, err)
	require.NoError(t, repo.Add("972549999999"))
	require.NoError(t, repo.Add("972541234567"))

	// Flat JSON array, sorted for stable diffs.
	raw, err := os.ReadFile(filepath.Join(dir, "allowed_phones.json"))
	require.NoError(t, err)
	var doc []string
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, []string{"972541234567", "972549999999"}, doc)

	reloaded, err := NewAllowListRepo(dir)
	require.NoError(t, err)
	assert.True(t, reloaded.Contains("972541234567"))
	assert.Equal(t, []string{"972541234567", "972549999999"}, reloaded.All())
}

func TestAllowListMissingFileIsEmpty(t *testing.T) {
	repo, err := NewAllowListRepo(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, repo.All())
}

func TestAllowListRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "allowed_phones.json"), []byte(`{"not":"an array"}`), 0o644))
	_, err := NewAllowListRepo(dir)
	assert.Error(t, err)
}
