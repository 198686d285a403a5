// Package queue defines message payloads exchanged over the message broker.
package queue

// SlotEvent is published when a reservation commits or is released.  It
// carries enough for downstream consumers to log or build utilization
// reports without querying the bot's in-memory state.  Kind is one of
// the Kind constants below; At is the commit time in RFC3339.
type SlotEvent struct {
	Kind     string `json:"kind"`
	Yard     string `json:"yard"`
	Slot     int    `json:"slot"`
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Charging bool   `json:"charging"`
	At       string `json:"at"`
}

// Event kinds.
const (
	KindClaimed  = "claimed"
	KindReleased = "released"
)

// EventQueueName is the broker queue both the publisher and the
// consumer declare.
const EventQueueName = "parking.slot-events"
