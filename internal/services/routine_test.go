package services

import (
	"strings"
	"testing"

	"calistenia/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRows(t *testing.T) {
	csv := strings.Join([]string{
		"title,description,weight",
		"Full Body,burpees 3x15; sentadillas 4x20,3",
		"Core,plancha 4x45s; hollow hold 3x30s",
		",sin titulo se ignora,5",
		"Empuje,flexiones 5x12,abc",
	}, "\n")

	rows, err := parseRows(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, models.RoutineRow{Title: "Full Body", Description: "burpees 3x15; sentadillas 4x20", Weight: 3}, rows[0])
	assert.Equal(t, 1, rows[1].Weight, "missing weight defaults to 1")
	assert.Equal(t, 1, rows[2].Weight, "bad weight defaults to 1")
}

func TestFilterUnused(t *testing.T) {
	rows := []models.RoutineRow{
		{Title: "Full Body", Weight: 1},
		{Title: "Core", Weight: 1},
		{Title: "Empuje", Weight: 1},
	}
	left := filterUnused(rows, map[string]bool{"Core": true})
	require.Len(t, left, 2)
	assert.Equal(t, "Full Body", left[0].Title)
	assert.Equal(t, "Empuje", left[1].Title)

	assert.Empty(t, filterUnused(rows, map[string]bool{"Full Body": true, "Core": true, "Empuje": true}))
}

func TestPickWeightedAlwaysFromCandidates(t *testing.T) {
	rows := []models.RoutineRow{
		{Title: "Full Body", Weight: 5},
		{Title: "Core", Weight: 0},
	}
	titles := map[string]bool{"Full Body": true, "Core": true}
	for i := 0; i < 50; i++ {
		picked, err := pickWeighted(rows)
		require.NoError(t, err)
		assert.True(t, titles[picked.Title])
	}
}

func TestPickWeightedEmpty(t *testing.T) {
	_, err := pickWeighted(nil)
	assert.Error(t, err)
}
