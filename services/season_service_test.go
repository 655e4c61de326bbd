package services

import (
	"testing"

	"torchtally/models"

	"github.com/stretchr/testify/assert"
)

func TestSeasonLifecycleTransitions(t *testing.T) {
	assert.Equal(t, []string{models.SeasonDrafting}, validTransitions[models.SeasonSetup])
	assert.Equal(t, []string{models.SeasonActive}, validTransitions[models.SeasonDrafting])
	assert.Equal(t, []string{models.SeasonComplete}, validTransitions[models.SeasonActive])
	// Completed seasons can be reopened for late corrections.
	assert.Equal(t, []string{models.SeasonActive}, validTransitions[models.SeasonComplete])
}

func TestValidSeasonStatus(t *testing.T) {
	for _, status := range []string{
		models.SeasonSetup, models.SeasonDrafting, models.SeasonActive, models.SeasonComplete,
	} {
		assert.True(t, models.ValidSeasonStatus(status), status)
	}
	assert.False(t, models.ValidSeasonStatus("archived"))
	assert.False(t, models.ValidSeasonStatus(""))
}
