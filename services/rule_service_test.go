package services

import (
	"errors"
	"testing"

	"torchtally/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRuleRollsBackWhenRescoreFails(t *testing.T) {
	db, _, _, scoring := setupScoringTest(t)
	ruleService := NewRuleService(db, scoring)

	season := createTestSeason(t, db, models.SeasonActive)
	castaway := createTestCastaway(t, db, season.ID, "Sai Hughley")
	episode := createTestEpisode(t, db, season.ID, 1)

	// Stale data from a since-deleted rule, with a count a per-instance rule
	// cannot accept.
	require.NoError(t, db.Create(&models.CastawayEpisodeEvent{
		CastawayID: castaway.ID, EpisodeID: episode.ID,
		EventData: models.EventData{"confessional_count": float64(-2)},
	}).Error)

	_, err := ruleService.CreateRule(season.ID, &CreateRuleRequest{
		RuleKey:    "confessional_count",
		RuleName:   "Confessional Count",
		Points:     0.25,
		Multiplier: models.MultiplierPerInstance,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	// The rule and the rescore commit together; neither survived.
	var count int64
	require.NoError(t, db.Model(&models.ScoringRule{}).
		Where("season_id = ?", season.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateRuleRollsBackWhenRescoreFails(t *testing.T) {
	db, _, _, scoring := setupScoringTest(t)
	ruleService := NewRuleService(db, scoring)

	season := createTestSeason(t, db, models.SeasonActive)
	castaway := createTestCastaway(t, db, season.ID, "Charity Nelms")
	episode := createTestEpisode(t, db, season.ID, 1)

	rule := binaryRule("survive_tribal", 1.0, models.PhaseAny)
	rule.SeasonID = season.ID
	require.NoError(t, db.Create(&rule).Error)

	require.NoError(t, db.Create(&models.CastawayEpisodeEvent{
		CastawayID: castaway.ID, EpisodeID: episode.ID,
		EventData: models.EventData{"survive_tribal": true},
	}).Error)

	// A boolean value is not a valid per-instance count, so the rescore
	// fails and the multiplier change rolls back with it.
	perInstance := models.MultiplierPerInstance
	_, err := ruleService.UpdateRule(season.ID, rule.ID, &UpdateRuleRequest{
		Multiplier: &perInstance,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	var reloaded models.ScoringRule
	require.NoError(t, db.First(&reloaded, rule.ID).Error)
	assert.Equal(t, models.MultiplierBinary, reloaded.Multiplier)
}

func TestUpdateRulePointsRescoresPersistedEvents(t *testing.T) {
	db, _, _, scoring := setupScoringTest(t)
	ruleService := NewRuleService(db, scoring)

	season := createTestSeason(t, db, models.SeasonActive)
	castaway := createTestCastaway(t, db, season.ID, "Kyle Fraser")
	episode := createTestEpisode(t, db, season.ID, 1)

	rule := binaryRule("survive_tribal", 1.0, models.PhaseAny)
	rule.SeasonID = season.ID
	require.NoError(t, db.Create(&rule).Error)

	event := models.CastawayEpisodeEvent{
		CastawayID: castaway.ID, EpisodeID: episode.ID,
		EventData: models.EventData{"survive_tribal": true},
	}
	require.NoError(t, db.Create(&event).Error)

	points := 2.5
	_, err := ruleService.UpdateRule(season.ID, rule.ID, &UpdateRuleRequest{Points: &points})
	require.NoError(t, err)

	var scored models.CastawayEpisodeEvent
	require.NoError(t, db.First(&scored, event.ID).Error)
	assert.Equal(t, 2.5, scored.CalculatedScore)
}
