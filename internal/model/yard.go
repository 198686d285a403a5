package model

// SlotID identifies a single parking space within a yard.  Slot numbers
// are small positive integers painted on the ground, so they are unique
// per yard but not globally.
type SlotID int

// Yard describes one physical parking yard.  A yard is defined once at
// startup from the layout file and never changes afterwards; only the
// occupancy tracked by the engine varies at runtime.
//
// Fields:
//  Name          – unique yard name, used as the lookup key everywhere.
//  Blocks        – directed blocking graph.  Blocks[s] lists the slots
//                  that become obstructed while s is occupied.  Every
//                  slot of the yard appears as a key, even with an
//                  empty list, so the key set doubles as the slot set.
//  ChargingSlots – slots equipped with a charger.  Occupants of these
//                  receive a reminder after the charging grace period.
type Yard struct {
	Name          string              // yard name, e.g. "Hamasger50"
	Blocks        map[SlotID][]SlotID // slot -> slots it blocks when taken
	ChargingSlots map[SlotID]bool     // subset of slots with chargers
}

// Slots returns the yard's slot set, derived from the block graph keys.
func (y *Yard) Slots() []SlotID {
	out := make([]SlotID, 0, len(y.Blocks))
	for s := range y.Blocks {
		out = append(out, s)
	}
	return out
}

// HasSlot reports whether id is a valid slot of this yard.
func (y *Yard) HasSlot(id SlotID) bool {
	_, ok := y.Blocks[id]
	return ok
}

// IsCharging reports whether id is one of the yard's charging slots.
func (y *Yard) IsCharging(id SlotID) bool {
	return y.ChargingSlots[id]
}
