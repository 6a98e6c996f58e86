package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texture-index/internal/texture"
)

func TestStatsCmd_Formatted(t *testing.T) {
	_, dbPath := seedIndex(t)

	output, err := runCommand(t, "--db", dbPath, "stats")

	require.NoError(t, err)
	assert.Contains(t, output, "Texture Index Statistics")
	assert.Contains(t, output, "Total Textures:     3")
	assert.Contains(t, output, "By Category:")
	assert.Contains(t, output, "Things")
	assert.Contains(t, output, "By Format:")
	assert.Contains(t, output, ".png")
}

func TestStatsCmd_JSON(t *testing.T) {
	_, dbPath := seedIndex(t)

	output, err := runCommand(t, "--db", dbPath, "stats", "--json")

	require.NoError(t, err)
	var stats texture.Stats
	require.NoError(t, json.Unmarshal([]byte(output), &stats))
	assert.Equal(t, 3, stats.TotalTextures)
	assert.Equal(t, 2, stats.ByCategory["Things"])
	assert.Equal(t, 1, stats.ByCategory["UI"])
	assert.Equal(t, 3, stats.ByFormat[".png"])
	assert.InDelta(t, 32, stats.AvgWidth, 0.01)
}

func TestSortedCounts(t *testing.T) {
	entries := sortedCounts(map[string]int{
		"Terrain": 5,
		"Things":  12,
		"UI":      5,
	})

	// Descending count, name breaks the tie
	require.Len(t, entries, 3)
	assert.Equal(t, "Things", entries[0].name)
	assert.Equal(t, "Terrain", entries[1].name)
	assert.Equal(t, "UI", entries[2].name)
}
