// Package engine owns all runtime parking state: per-yard occupancy and
// per-user yard selections.  Every mutation and every read goes through
// one mutex, which is the serialization point the rest of the system
// relies on: interactive claims, reminder re-validation and the daily
// reset all contend on the same lock, so two concurrent claims can
// never both observe a slot as free.
package engine

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eladw/parkbot/internal/model"
	"github.com/eladw/parkbot/internal/registry"
)

// Engine validates and commits claim and release requests against the
// registry and tracks which yard each user is operating in.
type Engine struct {
	mu        sync.Mutex
	reg       *registry.Registry
	occupancy map[string]map[model.SlotID]model.Reservation
	selection map[int64]string
	log       *zap.Logger
	now       func() time.Time
}

// New constructs an Engine over the given registry with empty occupancy.
func New(reg *registry.Registry, log *zap.Logger) *Engine {
	e := &Engine{
		reg:       reg,
		occupancy: make(map[string]map[model.SlotID]model.Reservation),
		selection: make(map[int64]string),
		log:       log,
		now:       time.Now,
	}
	for _, name := range reg.YardNames() {
		e.occupancy[name] = make(map[model.SlotID]model.Reservation)
	}
	return e
}

// ClaimResult reports a committed claim.  Blocking lists the occupants
// the claimant now obstructs, so the caller can notify both sides.
type ClaimResult struct {
	Yard      string
	Slot      model.SlotID
	Charging  bool
	StartedAt time.Time
	Blocking  []model.OccupiedSlot
}

// Claim validates and commits a slot claim for user.  Preconditions, in
// order: the yard exists, the slot is valid for it, the user holds no
// reservation in any yard, and the slot is free.  A failed precondition
// returns the corresponding error and leaves occupancy untouched.
func (e *Engine) Claim(yard string, slot model.SlotID, user model.User, phone string) (ClaimResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slots, ok := e.occupancy[yard]
	if !ok {
		return ClaimResult{}, ErrUnknownYard
	}
	if !e.reg.IsValidSlot(yard, slot) {
		return ClaimResult{}, ErrInvalidSlot
	}
	// At most one reservation per user across every yard.
	for yardName, occ := range e.occupancy {
		for s, res := range occ {
			if res.UserID == user.ID {
				return ClaimResult{}, &AlreadyParkedError{Yard: yardName, Slot: s}
			}
		}
	}
	if _, taken := slots[slot]; taken {
		return ClaimResult{}, ErrSlotTaken
	}

	res := model.Reservation{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Phone:       phone,
		StartedAt:   e.now(),
	}
	slots[slot] = res

	result := ClaimResult{
		Yard:      yard,
		Slot:      slot,
		Charging:  e.reg.IsCharging(yard, slot),
		StartedAt: res.StartedAt,
		Blocking:  e.occupiedAmongLocked(yard, e.reg.BlockedBy(yard, slot)),
	}
	e.log.Info("slot claimed",
		zap.String("yard", yard),
		zap.Int("slot", int(slot)),
		zap.Int64("user_id", user.ID),
		zap.Bool("charging", result.Charging))
	return result, nil
}

// ReleaseResult reports a committed release.  Unblocked lists the
// occupants of slots that were obstructed by the released slot, so the
// caller can tell them it is free now.
type ReleaseResult struct {
	Yard      string
	Slot      model.SlotID
	Unblocked []model.OccupiedSlot
}

// Release removes user's reservation in yard, found by linear scan of
// the yard's occupancy (occupancy is tens of slots at most).  Returns
// ErrNotParked when the user holds nothing in the yard.
func (e *Engine) Release(yard string, userID int64) (ReleaseResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slots, ok := e.occupancy[yard]
	if !ok {
		return ReleaseResult{}, ErrUnknownYard
	}
	for slot, res := range slots {
		if res.UserID != userID {
			continue
		}
		delete(slots, slot)
		result := ReleaseResult{
			Yard:      yard,
			Slot:      slot,
			Unblocked: e.occupiedAmongLocked(yard, e.reg.BlockedBy(yard, slot)),
		}
		e.log.Info("slot released",
			zap.String("yard", yard),
			zap.Int("slot", int(slot)),
			zap.Int64("user_id", userID))
		return result, nil
	}
	return ReleaseResult{}, ErrNotParked
}

// TakenSlot is one occupied slot in a status report.
type TakenSlot struct {
	Slot     model.SlotID
	Name     string
	Charging bool
	Elapsed  time.Duration // zero unless Charging
}

// Status reports the yard's free slots and occupied slots, both in
// ascending slot order.  Charging slots carry the elapsed occupancy
// duration for display as whole hours and minutes.
func (e *Engine) Status(yard string) (free []model.SlotID, taken []TakenSlot, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slots, ok := e.occupancy[yard]
	if !ok {
		return nil, nil, ErrUnknownYard
	}
	y, _ := e.reg.GetYard(yard)
	now := e.now()
	for _, s := range y.Slots() {
		res, occupied := slots[s]
		if !occupied {
			free = append(free, s)
			continue
		}
		t := TakenSlot{Slot: s, Name: res.DisplayName, Charging: y.IsCharging(s)}
		if t.Charging {
			t.Elapsed = now.Sub(res.StartedAt)
		}
		taken = append(taken, t)
	}
	sort.Slice(free, func(i, j int) bool { return free[i] < free[j] })
	sort.Slice(taken, func(i, j int) bool { return taken[i].Slot < taken[j].Slot })
	return free, taken, nil
}

// Holder returns the reservation currently on (yard, slot).  Reminder
// jobs call this at fire time to confirm the binding is still live.
func (e *Engine) Holder(yard string, slot model.SlotID) (model.Reservation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	slots, ok := e.occupancy[yard]
	if !ok {
		return model.Reservation{}, false
	}
	res, ok := slots[slot]
	return res, ok
}

// SelectYard records user's working yard.  The yard must exist.
func (e *Engine) SelectYard(userID int64, yard string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.occupancy[yard]; !ok {
		return ErrUnknownYard
	}
	e.selection[userID] = yard
	return nil
}

// SelectedYard returns user's working yard, if they chose one.
func (e *Engine) SelectedYard(userID int64) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	y, ok := e.selection[userID]
	return y, ok
}

// ResetAll clears every yard's occupancy and every yard selection.  It
// is idempotent and safe with zero reservations; the daily job calls
// it unconditionally.
func (e *Engine) ResetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name := range e.occupancy {
		e.occupancy[name] = make(map[model.SlotID]model.Reservation)
	}
	e.selection = make(map[int64]string)
	e.log.Info("all yards reset")
}

// occupiedAmongLocked filters candidates down to the currently occupied
// ones, with their occupants.  Callers hold e.mu.
func (e *Engine) occupiedAmongLocked(yard string, candidates []model.SlotID) []model.OccupiedSlot {
	slots := e.occupancy[yard]
	var out []model.OccupiedSlot
	for _, s := range candidates {
		if res, ok := slots[s]; ok {
			out = append(out, model.OccupiedSlot{Slot: s, Reservation: res})
		}
	}
	return out
}
