package model

import "time"

// Reservation binds a user to one slot until they leave or the daily
// reset clears the yard.  Reservations live only inside the engine's
// occupancy map; they are never persisted, matching the operational
// model where every slot is vacated overnight anyway.
//
// Fields:
//  UserID      – stable chat identity of the occupant.
//  DisplayName – occupant's name as shown to other users.
//  Phone       – occupant's phone if they shared one, "" otherwise.
//  StartedAt   – when the claim committed; used to report elapsed time
//                on charging slots.
type Reservation struct {
	UserID      int64     // occupant identity
	DisplayName string    // occupant display name
	Phone       string    // shared phone, may be empty
	StartedAt   time.Time // claim time
}

// OccupiedSlot pairs a slot with its current reservation, as returned
// by engine status and notification queries.
type OccupiedSlot struct {
	Slot        SlotID      // the occupied slot
	Reservation Reservation // who holds it
}

// ReminderJob is the payload of a one-shot charging reminder.  At fire
// time the job is valid only if the same user still occupies the same
// slot of the same yard; otherwise the scheduler drops it silently.
type ReminderJob struct {
	UserID   int64     // user to remind
	Slot     SlotID    // charging slot they claimed
	YardName string    // yard the slot belongs to
	FireAt   time.Time // when the reminder is due
}
