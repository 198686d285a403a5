package auth

import (
	"github.com/eladw/parkbot/internal/model"
	"github.com/eladw/parkbot/internal/repository"
)

// Gate answers authorization questions.  It owns no state of its own:
// tiers are derived on every call from the phone map and the allow-list
// so an admin approval takes effect on the user's next message without
// any cache invalidation.
type Gate struct {
	phones    *repository.PhoneRepo
	allowList *repository.AllowListRepo
	admins    map[int64]bool
}

// NewGate constructs a Gate.  admins is the fixed administrator set
// from configuration.
func NewGate(phones *repository.PhoneRepo, allowList *repository.AllowListRepo, admins map[int64]bool) *Gate {
	return &Gate{phones: phones, allowList: allowList, admins: admins}
}

// AccessTier computes the tier for userID: no stored phone, stored but
// not allow-listed, or approved.
func (g *Gate) AccessTier(userID int64) model.AccessTier {
	phone, ok := g.phones.Get(userID)
	if !ok {
		return model.TierNoPhone
	}
	if !g.allowList.Contains(phone) {
		return model.TierPendingApproval
	}
	return model.TierApproved
}

// IsAdmin reports membership in the fixed administrator set.  Non-admin
// callers of admin commands are ignored silently, so this check never
// produces a user-visible error by itself.
func (g *Gate) IsAdmin(userID int64) bool {
	return g.admins[userID]
}
