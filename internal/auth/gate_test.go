package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eladw/parkbot/internal/model"
	"github.com/eladw/parkbot/internal/repository"
)

func newGate(t *testing.T) (*Gate, *repository.PhoneRepo, *repository.AllowListRepo) {
	t.Helper()
	dir := t.TempDir()
	phones, err := repository.NewPhoneRepo(dir)
	require.NoError(t, err)
	allow, err := repository.NewAllowListRepo(dir)
	require.NoError(t, err)
	return NewGate(phones, allow, map[int64]bool{99: true}), phones, allow
}

func TestAccessTierProgression(t *testing.T) {
	gate, phones, allow := newGate(t)

	const userID = int64(7)
	require.Equal(t, model.TierNoPhone, gate.AccessTier(userID))

	require.NoError(t, phones.Set(userID, "972541234567"))
	require.Equal(t, model.TierPendingApproval, gate.AccessTier(userID))

	require.NoError(t, allow.Add("972541234567"))
	require.Equal(t, model.TierApproved, gate.AccessTier(userID))

	// Revoking the phone demotes the user on the next check.
	require.NoError(t, allow.Remove("972541234567"))
	require.Equal(t, model.TierPendingApproval, gate.AccessTier(userID))
}

func TestIsAdmin(t *testing.T) {
	gate, _, _ := newGate(t)
	require.True(t, gate.IsAdmin(99))
	require.False(t, gate.IsAdmin(7))
}
