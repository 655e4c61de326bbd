package services

import (
	"torchtally/models"

	"gorm.io/gorm"
)

// DefaultRules is the canonical rule set seeded into every new season. The
// commissioner can then tweak individual rules via the API.
var DefaultRules = []models.ScoringRule{
	{RuleKey: "survive_tribal", RuleName: "Survive Tribal Council", Points: 1.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 1},
	{RuleKey: "tribe_reward_win", RuleName: "Tribe Reward Win", Points: 1.0, Multiplier: models.MultiplierBinary, Phase: models.PhasePreMerge, SortOrder: 2},
	{RuleKey: "tribe_reward_2nd", RuleName: "Tribe 2nd Place Reward", Points: 0.5, Multiplier: models.MultiplierBinary, Phase: models.PhasePreMerge, SortOrder: 3},
	{RuleKey: "tribe_immunity_1st", RuleName: "Tribe Win Immunity (1st Place)", Points: 2.0, Multiplier: models.MultiplierBinary, Phase: models.PhasePreMerge, SortOrder: 4},
	{RuleKey: "tribe_immunity_2nd", RuleName: "Tribe Win Immunity (2nd Place)", Points: 1.0, Multiplier: models.MultiplierBinary, Phase: models.PhasePreMerge, SortOrder: 5},
	{RuleKey: "confessional_count", RuleName: "Confessional Count", Points: 0.25, Multiplier: models.MultiplierPerInstance, Phase: models.PhaseAny, SortOrder: 6},
	{RuleKey: "obtain_advantage", RuleName: "Obtain Advantage", Points: 2.0, Multiplier: models.MultiplierPerInstance, Phase: models.PhaseAny, SortOrder: 7},
	{RuleKey: "used_advantage_correctly", RuleName: "Used Advantage Correctly", Points: 2.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 8},
	{RuleKey: "go_home_with_advantage", RuleName: "Go Home with Advantage", Points: -1.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 9},
	{RuleKey: "played_advantage_incorrectly", RuleName: "Played Advantage Incorrectly", Points: -0.5, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 10},
	{RuleKey: "obtain_immunity_idol", RuleName: "Obtain Immunity Idol", Points: 5.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 11, Description: "Can't get duplicate points for the same idol"},
	{RuleKey: "play_idol_correctly", RuleName: "Play Immunity Idol Correctly", Points: 5.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 12},
	{RuleKey: "go_home_with_immunity", RuleName: "Go Home with Immunity Idol", Points: -4.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 13},
	{RuleKey: "played_idol_incorrectly", RuleName: "Played Idol Incorrectly", Points: -2.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 14},
	{RuleKey: "played_sitd", RuleName: "Played Shot in the Dark", Points: 1.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 15},
	{RuleKey: "successful_sitd", RuleName: "Successful SITD", Points: 5.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 16},
	{RuleKey: "make_merge", RuleName: "Make Merge", Points: 2.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 17},
	{RuleKey: "picked_for_reward", RuleName: "Picked for Post-Merge Reward", Points: 0.5, Multiplier: models.MultiplierPerInstance, Phase: models.PhasePostMerge, SortOrder: 18},
	{RuleKey: "solo_reward_win", RuleName: "Post-Merge Solo Reward Win", Points: 2.0, Multiplier: models.MultiplierPerInstance, Phase: models.PhasePostMerge, SortOrder: 19},
	{RuleKey: "individual_immunity_win", RuleName: "Post-Merge Immunity Win", Points: 5.0, Multiplier: models.MultiplierPerInstance, Phase: models.PhasePostMerge, SortOrder: 20},
	{RuleKey: "overall_winner", RuleName: "Overall Winner", Points: 25.0, Multiplier: models.MultiplierBinary, Phase: models.PhasePostMerge, SortOrder: 21},
	{RuleKey: "runner_up", RuleName: "Runner-Up", Points: 12.0, Multiplier: models.MultiplierBinary, Phase: models.PhasePostMerge, SortOrder: 22},
	{RuleKey: "third_place", RuleName: "3rd Place", Points: 6.0, Multiplier: models.MultiplierBinary, Phase: models.PhasePostMerge, SortOrder: 23},
	{RuleKey: "fourth_place", RuleName: "4th Place", Points: 3.0, Multiplier: models.MultiplierBinary, Phase: models.PhasePostMerge, SortOrder: 24},
	{RuleKey: "fifth_place", RuleName: "5th Place", Points: 1.5, Multiplier: models.MultiplierBinary, Phase: models.PhasePostMerge, SortOrder: 25},
	{RuleKey: "first_boot_pick_correct", RuleName: "Pre-season First Boot Pick Right", Points: 5.0, Multiplier: models.MultiplierBinary, Phase: models.PhasePreMerge, SortOrder: 26},
	{RuleKey: "evacuated", RuleName: "Evacuated", Points: -7.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 27},
	{RuleKey: "quit", RuleName: "Voluntarily Leave (Quit)", Points: -15.0, Multiplier: models.MultiplierBinary, Phase: models.PhaseAny, SortOrder: 28},
	{RuleKey: "win_fire_making", RuleName: "Win End of Season Fire Making", Points: 5.0, Multiplier: models.MultiplierBinary, Phase: models.PhasePostMerge, SortOrder: 29},
	{RuleKey: "go_on_journey", RuleName: "Go on a Journey", Points: 1.0, Multiplier: models.MultiplierPerInstance, Phase: models.PhaseAny, SortOrder: 30},
}

// SeedDefaultRules creates the default scoring rules for a new season.
func SeedDefaultRules(tx *gorm.DB, seasonID uint) error {
	for _, template := range DefaultRules {
		rule := template
		rule.ID = 0
		rule.SeasonID = seasonID
		rule.IsActive = true
		if err := tx.Create(&rule).Error; err != nil {
			return err
		}
	}
	return nil
}

// CopyRulesFromSeason copies every rule from a previous season into a new
// one, active flags and all. Useful as "start from last season's rules,
// then tweak".
func CopyRulesFromSeason(tx *gorm.DB, sourceSeasonID, targetSeasonID uint) error {
	var sourceRules []models.ScoringRule
	if err := tx.Where("season_id = ?", sourceSeasonID).
		Order("sort_order").
		Find(&sourceRules).Error; err != nil {
		return err
	}

	for _, source := range sourceRules {
		rule := source
		rule.ID = 0
		rule.SeasonID = targetSeasonID
		if err := tx.Create(&rule).Error; err != nil {
			return err
		}
	}
	return nil
}
