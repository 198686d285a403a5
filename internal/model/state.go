package model

// DialogState is the current step of a user's in-progress multi-turn
// interaction.  A user is in exactly one state at a time; starting a
// new flow overwrites the old state rather than stacking.
type DialogState int

const (
	// StateIdle: no flow in progress; menu labels and commands are
	// interpreted as flow entry points.
	StateIdle DialogState = iota
	// StateSelectingYard: the user was shown the yard list and the next
	// message is read as a yard name.
	StateSelectingYard
	// StateAwaitingPhone: the user was asked to share their contact.
	StateAwaitingPhone
	// StateAwaitingSlotInput: the user was asked for a slot number.
	StateAwaitingSlotInput
)

// String returns a short label for logs.
func (s DialogState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelectingYard:
		return "selecting_yard"
	case StateAwaitingPhone:
		return "awaiting_phone"
	case StateAwaitingSlotInput:
		return "awaiting_slot_input"
	default:
		return "unknown"
	}
}
