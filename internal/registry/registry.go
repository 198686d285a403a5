// Package registry exposes read-only lookups over the yard layout.  The
// registry is built once at startup from the validated layout and never
// mutates; runtime occupancy lives in the engine, not here.
package registry

import (
	"fmt"
	"sort"

	"github.com/eladw/parkbot/internal/model"
)

// ErrYardNotFound is returned when a lookup names a yard that does not
// exist in the layout.
var ErrYardNotFound = fmt.Errorf("yard not found")

// Registry answers yard and slot questions for the rest of the system.
type Registry struct {
	yards map[string]model.Yard
	names []string // yard names in stable sorted order for menus
}

// New builds a Registry from validated yards.  Duplicate names are a
// layout bug and rejected here because the map would silently drop one.
func New(yards []model.Yard) (*Registry, error) {
	r := &Registry{yards: make(map[string]model.Yard, len(yards))}
	for _, y := range yards {
		if _, dup := r.yards[y.Name]; dup {
			return nil, fmt.Errorf("duplicate yard name %q", y.Name)
		}
		r.yards[y.Name] = y
		r.names = append(r.names, y.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// YardNames returns all yard names in sorted order.
func (r *Registry) YardNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// GetYard returns the named yard or ErrYardNotFound.
func (r *Registry) GetYard(name string) (model.Yard, error) {
	y, ok := r.yards[name]
	if !ok {
		return model.Yard{}, ErrYardNotFound
	}
	return y, nil
}

// HasYard reports whether name is a configured yard.
func (r *Registry) HasYard(name string) bool {
	_, ok := r.yards[name]
	return ok
}

// IsValidSlot reports whether slot exists in the named yard.  Unknown
// yards simply report false; callers that need to distinguish use GetYard.
func (r *Registry) IsValidSlot(yard string, slot model.SlotID) bool {
	y, ok := r.yards[yard]
	return ok && y.HasSlot(slot)
}

// IsCharging reports whether slot is a charging slot of the named yard.
func (r *Registry) IsCharging(yard string, slot model.SlotID) bool {
	y, ok := r.yards[yard]
	return ok && y.IsCharging(slot)
}

// BlockedBy returns the slots obstructed while slot is occupied, i.e.
// the notification targets of a claim or release of slot.  The result
// is nil for unknown yards or slots.
func (r *Registry) BlockedBy(yard string, slot model.SlotID) []model.SlotID {
	y, ok := r.yards[yard]
	if !ok {
		return nil
	}
	return y.Blocks[slot]
}
