package config

// This file loads the static yard layout document.  The layout is the
// one piece of configuration with real structure: a set of yards, each
// with a directed blocking graph over its slots and a charging subset.
// Structural violations are rejected at startup rather than tolerated,
// because a dangling block reference would only surface later as a
// notification sent about a slot that cannot exist.

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/eladw/parkbot/internal/model"
)

// yardDoc mirrors one yard entry of the layout file.  Block graph keys
// are strings because JSON object keys always are; they are converted
// and validated in LoadYards.
type yardDoc struct {
	Blocks        map[string][]model.SlotID `json:"blocks"`
	ChargingSlots []model.SlotID            `json:"charging_slots"`
}

// LoadYards reads and validates the yard layout file.  It returns the
// yards in file order.  Any structural violation (unparsable slot key,
// block edge pointing at an undefined slot, charging slot outside the
// slot set, duplicate or empty yard name) is returned as an error and
// is expected to abort startup.
func LoadYards(path string) ([]model.Yard, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yard layout: %w", err)
	}
	var docs map[string]yardDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("parse yard layout: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("yard layout %s defines no yards", path)
	}

	yards := make([]model.Yard, 0, len(docs))
	for name, doc := range docs {
		y, err := buildYard(name, doc)
		if err != nil {
			return nil, err
		}
		yards = append(yards, y)
	}
	return yards, nil
}

// buildYard converts one document entry into a validated model.Yard.
func buildYard(name string, doc yardDoc) (model.Yard, error) {
	if name == "" {
		return model.Yard{}, fmt.Errorf("yard with empty name in layout")
	}
	blocks := make(map[model.SlotID][]model.SlotID, len(doc.Blocks))
	for key, targets := range doc.Blocks {
		var slot model.SlotID
		if _, err := fmt.Sscanf(key, "%d", &slot); err != nil {
			return model.Yard{}, fmt.Errorf("yard %s: slot key %q is not a number", name, key)
		}
		if slot <= 0 {
			return model.Yard{}, fmt.Errorf("yard %s: slot key %q is not positive", name, key)
		}
		blocks[slot] = targets
	}
	// Every block edge must land on a slot of the same yard.
	for slot, targets := range blocks {
		for _, t := range targets {
			if _, ok := blocks[t]; !ok {
				return model.Yard{}, fmt.Errorf("yard %s: slot %d blocks undefined slot %d", name, slot, t)
			}
		}
	}
	charging := make(map[model.SlotID]bool, len(doc.ChargingSlots))
	for _, c := range doc.ChargingSlots {
		if _, ok := blocks[c]; !ok {
			return model.Yard{}, fmt.Errorf("yard %s: charging slot %d is not a slot of the yard", name, c)
		}
		charging[c] = true
	}
	return model.Yard{Name: name, Blocks: blocks, ChargingSlots: charging}, nil
}
