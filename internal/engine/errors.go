package engine

import (
	"errors"
	"fmt"

	"github.com/eladw/parkbot/internal/model"
)

// Sentinel errors for claim and release preconditions.  None of these
// are system failures; the dialog layer translates each into a user
// message and either re-prompts or ends the flow.
var (
	// ErrUnknownYard: the named yard is not in the layout.
	ErrUnknownYard = errors.New("unknown yard")
	// ErrInvalidSlot: the slot number does not exist in the yard.
	ErrInvalidSlot = errors.New("invalid slot for yard")
	// ErrSlotTaken: another user already occupies the slot.
	ErrSlotTaken = errors.New("slot already taken")
	// ErrNotParked: the user holds no reservation in the yard.
	ErrNotParked = errors.New("not parked in any slot")
)

// AlreadyParkedError rejects a claim by a user who already holds a
// reservation.  It names the conflicting yard and slot so the message
// can tell the user exactly what to release first.
type AlreadyParkedError struct {
	Yard string
	Slot model.SlotID
}

func (e *AlreadyParkedError) Error() string {
	return fmt.Sprintf("already parked in slot %d of %s", e.Slot, e.Yard)
}
