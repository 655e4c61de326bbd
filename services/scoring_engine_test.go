package services

import (
	"errors"
	"testing"

	"torchtally/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binaryRule(key string, points float64, phase string) models.ScoringRule {
	return models.ScoringRule{
		RuleKey:    key,
		Points:     points,
		Multiplier: models.MultiplierBinary,
		Phase:      phase,
		IsActive:   true,
	}
}

func perInstanceRule(key string, points float64, phase string) models.ScoringRule {
	return models.ScoringRule{
		RuleKey:    key,
		Points:     points,
		Multiplier: models.MultiplierPerInstance,
		Phase:      phase,
		IsActive:   true,
	}
}

func TestCalculateEventScoreBinary(t *testing.T) {
	rules := []models.ScoringRule{
		binaryRule("survive_tribal", 1.0, models.PhaseAny),
		binaryRule("quit", -15.0, models.PhaseAny),
	}

	score, err := CalculateEventScore(models.EventData{"survive_tribal": true}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	score, err = CalculateEventScore(models.EventData{"survive_tribal": false}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	// Negative-point rules subtract when triggered.
	score, err = CalculateEventScore(models.EventData{"survive_tribal": true, "quit": true}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, -14.0, score)
}

func TestCalculateEventScoreBinaryNumericValues(t *testing.T) {
	rules := []models.ScoringRule{binaryRule("make_merge", 2.0, models.PhaseAny)}

	// JSON numbers decode as float64; nonzero counts as true.
	score, err := CalculateEventScore(models.EventData{"make_merge": float64(1)}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 2.0, score)

	score, err = CalculateEventScore(models.EventData{"make_merge": float64(0)}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestCalculateEventScorePerInstance(t *testing.T) {
	rules := []models.ScoringRule{perInstanceRule("confessional_count", 0.25, models.PhaseAny)}

	score, err := CalculateEventScore(models.EventData{"confessional_count": float64(3)}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 0.75, score)

	score, err = CalculateEventScore(models.EventData{"confessional_count": float64(0)}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestCalculateEventScorePerInstanceRejectsBadCounts(t *testing.T) {
	rules := []models.ScoringRule{perInstanceRule("confessional_count", 0.25, models.PhaseAny)}

	_, err := CalculateEventScore(models.EventData{"confessional_count": float64(-1)}, rules, false)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = CalculateEventScore(models.EventData{"confessional_count": 2.5}, rules, false)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = CalculateEventScore(models.EventData{"confessional_count": "three"}, rules, false)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = CalculateEventScore(models.EventData{"confessional_count": true}, rules, false)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestCalculateEventScoreBinaryRejectsNonScalar(t *testing.T) {
	rules := []models.ScoringRule{binaryRule("survive_tribal", 1.0, models.PhaseAny)}

	_, err := CalculateEventScore(models.EventData{"survive_tribal": "yes"}, rules, false)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestCalculateEventScorePhaseFiltering(t *testing.T) {
	rules := []models.ScoringRule{
		binaryRule("individual_immunity_win", 2.0, models.PhasePostMerge),
		binaryRule("tribe_immunity_1st", 2.0, models.PhasePreMerge),
		binaryRule("survive_tribal", 1.0, models.PhaseAny),
	}
	data := models.EventData{
		"individual_immunity_win": true,
		"tribe_immunity_1st":      true,
		"survive_tribal":          true,
	}

	// Pre-merge episode: the post_merge rule contributes nothing.
	score, err := CalculateEventScore(data, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)

	// Post-merge episode: the pre_merge rule drops out instead.
	score, err = CalculateEventScore(data, rules, true)
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)
}

func TestCalculateEventScoreSkipsInactiveRules(t *testing.T) {
	inactive := binaryRule("survive_tribal", 1.0, models.PhaseAny)
	inactive.IsActive = false
	rules := []models.ScoringRule{inactive}

	score, err := CalculateEventScore(models.EventData{"survive_tribal": true}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestCalculateEventScoreIgnoresStaleKeys(t *testing.T) {
	rules := []models.ScoringRule{binaryRule("survive_tribal", 1.0, models.PhaseAny)}
	data := models.EventData{
		"survive_tribal": true,
		"deleted_rule":   true,
		"another_ghost":  float64(3),
	}

	score, err := CalculateEventScore(data, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	assert.Equal(t, []string{"another_ghost", "deleted_rule"}, UnmatchedKeys(data, rules))
	assert.Nil(t, UnmatchedKeys(models.EventData{"survive_tribal": true}, rules))
}

func TestCalculateEventScoreIgnoresNilValues(t *testing.T) {
	rules := []models.ScoringRule{binaryRule("survive_tribal", 1.0, models.PhaseAny)}

	score, err := CalculateEventScore(models.EventData{"survive_tribal": nil}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestCalculateEventScoreIsDeterministic(t *testing.T) {
	rules := []models.ScoringRule{
		binaryRule("survive_tribal", 1.0, models.PhaseAny),
		perInstanceRule("confessional_count", 0.25, models.PhaseAny),
		perInstanceRule("go_on_journey", 1.0, models.PhaseAny),
	}
	data := models.EventData{
		"survive_tribal":     true,
		"confessional_count": float64(5),
		"go_on_journey":      float64(1),
	}

	first, err := CalculateEventScore(data, rules, false)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := CalculateEventScore(data, rules, false)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 3.25, first)
}

func TestCalculateEventScoreRoundsToTwoDecimals(t *testing.T) {
	rules := []models.ScoringRule{perInstanceRule("confessional_count", 0.333, models.PhaseAny)}

	score, err := CalculateEventScore(models.EventData{"confessional_count": float64(3)}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score) // 0.999 rounds up

	rules[0].Points = 0.111
	score, err = CalculateEventScore(models.EventData{"confessional_count": float64(2)}, rules, false)
	require.NoError(t, err)
	assert.Equal(t, 0.22, score)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.75, Round2(0.75))
	assert.Equal(t, 1.0, Round2(0.999))
	assert.Equal(t, 0.1, Round2(0.1+0.2-0.2))
	assert.Equal(t, -14.0, Round2(-14.0000000001))
	assert.Equal(t, 2.35, Round2(2.345000001))
}

func TestCompetitionRanks(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, CompetitionRanks([]float64{30, 20, 10}))
	// Tied totals share a rank; the next distinct total skips past the tie.
	assert.Equal(t, []int{1, 2, 2, 4}, CompetitionRanks([]float64{30, 20, 20, 10}))
	assert.Equal(t, []int{1, 1, 1}, CompetitionRanks([]float64{10, 10, 10}))
	assert.Empty(t, CompetitionRanks(nil))
}

func TestCalculateEventScoreEmptyInputs(t *testing.T) {
	score, err := CalculateEventScore(models.EventData{}, DefaultRules, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	score, err = CalculateEventScore(models.EventData{"survive_tribal": true}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}
