package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eladw/parkbot/internal/model"
)

func writeLayout(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yards.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYardsValid(t *testing.T) {
	path := writeLayout(t, `{
		"A": {"blocks": {"1": [], "2": [1]}, "charging_slots": [2]},
		"B": {"blocks": {"1": []}, "charging_slots": []}
	}`)

	yards, err := LoadYards(path)
	require.NoError(t, err)
	require.Len(t, yards, 2)

	byName := map[string]model.Yard{}
	for _, y := range yards {
		byName[y.Name] = y
	}
	a := byName["A"]
	assert.True(t, a.HasSlot(1))
	assert.True(t, a.HasSlot(2))
	assert.False(t, a.HasSlot(3))
	assert.Equal(t, []model.SlotID{1}, a.Blocks[2])
	assert.True(t, a.IsCharging(2))
	assert.False(t, a.IsCharging(1))
}

func TestLoadYardsRejectsStructuralViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "dangling block reference", body: `{"A": {"blocks": {"1": [9]}, "charging_slots": []}}`},
		{name: "charging slot outside slot set", body: `{"A": {"blocks": {"1": []}, "charging_slots": [3]}}`},
		{name: "non-numeric slot key", body: `{"A": {"blocks": {"x": []}, "charging_slots": []}}`},
		{name: "non-positive slot key", body: `{"A": {"blocks": {"0": []}, "charging_slots": []}}`},
		{name: "no yards", body: `{}`},
		{name: "not json", body: `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYards(writeLayout(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadYardsMissingFile(t *testing.T) {
	_, err := LoadYards(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
