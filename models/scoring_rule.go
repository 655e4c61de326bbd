package models

import "time"

// Rule multiplier kinds.
const (
	MultiplierBinary      = "binary"       // 0 or 1 — did it happen?
	MultiplierPerInstance = "per_instance" // count * points (confessionals, etc.)
)

// Rule phases.
const (
	PhasePreMerge  = "pre_merge"
	PhasePostMerge = "post_merge"
	PhaseAny       = "any"
)

// ScoringRule is a fully dynamic scoring rule. Rules are added, modified and
// deleted per season without touching code; the scoring engine reads from
// this table.
type ScoringRule struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	SeasonID    uint      `json:"season_id" gorm:"not null;uniqueIndex:uq_rule_season_key"`
	RuleKey     string    `json:"rule_key" gorm:"size:50;not null;uniqueIndex:uq_rule_season_key"` // machine-readable key, e.g. "survive_tribal"
	RuleName    string    `json:"rule_name" gorm:"size:100;not null"`                              // display name, e.g. "Survive Tribal Council"
	Points      float64   `json:"points" gorm:"not null"`
	Multiplier  string    `json:"multiplier" gorm:"size:20;not null"`
	Phase       string    `json:"phase" gorm:"size:20;not null;default:'any'"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"` // soft-disable rules mid-season if needed
	SortOrder   int       `json:"sort_order" gorm:"not null;default:0"`   // for display ordering
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ValidMultiplier(m string) bool {
	return m == MultiplierBinary || m == MultiplierPerInstance
}

func ValidPhase(p string) bool {
	return p == PhasePreMerge || p == PhasePostMerge || p == PhaseAny
}
