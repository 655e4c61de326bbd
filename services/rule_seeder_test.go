package services

import (
	"testing"

	"torchtally/models"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRules(t *testing.T) {
	assert.Len(t, DefaultRules, 30)

	seen := make(map[string]struct{})
	for _, rule := range DefaultRules {
		assert.NotEmpty(t, rule.RuleKey)
		assert.NotEmpty(t, rule.RuleName)
		assert.True(t, models.ValidMultiplier(rule.Multiplier), "rule %s", rule.RuleKey)
		assert.True(t, models.ValidPhase(rule.Phase), "rule %s", rule.RuleKey)

		_, dup := seen[rule.RuleKey]
		assert.False(t, dup, "duplicate rule key %s", rule.RuleKey)
		seen[rule.RuleKey] = struct{}{}
	}
}

func TestDefaultRulesKnownEntries(t *testing.T) {
	byKey := make(map[string]models.ScoringRule, len(DefaultRules))
	for _, rule := range DefaultRules {
		byKey[rule.RuleKey] = rule
	}

	survive := byKey["survive_tribal"]
	assert.Equal(t, 1.0, survive.Points)
	assert.Equal(t, models.MultiplierBinary, survive.Multiplier)
	assert.Equal(t, models.PhaseAny, survive.Phase)

	confessional := byKey["confessional_count"]
	assert.Equal(t, 0.25, confessional.Points)
	assert.Equal(t, models.MultiplierPerInstance, confessional.Multiplier)

	quit := byKey["quit"]
	assert.Equal(t, -15.0, quit.Points)

	immunity := byKey["individual_immunity_win"]
	assert.Equal(t, models.PhasePostMerge, immunity.Phase)
}
