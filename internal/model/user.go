package model

// AccessTier is the authorization level computed for a user from the
// stored phone map and the allow-list.
type AccessTier int

const (
	// TierNoPhone: the user has never shared a phone number.  The only
	// feature open to them is the phone-share flow.
	TierNoPhone AccessTier = iota
	// TierPendingApproval: a phone is stored but an administrator has
	// not added it to the allow-list yet.
	TierPendingApproval
	// TierApproved: the stored phone is on the allow-list; all parking
	// features are available.
	TierApproved
)

// String returns a short label for logs.
func (t AccessTier) String() string {
	switch t {
	case TierNoPhone:
		return "no_phone"
	case TierPendingApproval:
		return "pending_approval"
	case TierApproved:
		return "approved"
	default:
		return "unknown"
	}
}

// User is the identity attached to every inbound chat event by the
// messaging gateway.
type User struct {
	ID          int64  // stable chat identity
	DisplayName string // full name as reported by the transport
}
