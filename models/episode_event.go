package models

import "time"

// EventData maps rule_key to a submitted raw value: a bool for binary rules
// or a non-negative count for per-instance rules. Stored as JSON so adding a
// new rule never requires a schema migration.
type EventData map[string]any

// CastawayEpisodeEvent is the core scoring table. Each row holds one
// castaway's events for one episode, keyed by rule_key instead of hardcoded
// columns per rule.
//
// Example event_data:
//
//	{
//	    "survive_tribal": 1,
//	    "tribe_immunity_1st": 1,
//	    "confessional_count": 7,
//	    "obtain_advantage": 0
//	}
type CastawayEpisodeEvent struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	CastawayID      uint      `json:"castaway_id" gorm:"not null;uniqueIndex:uq_castaway_episode"`
	EpisodeID       uint      `json:"episode_id" gorm:"not null;uniqueIndex:uq_castaway_episode"`
	EventData       EventData `json:"event_data" gorm:"serializer:json;not null"`
	CalculatedScore float64   `json:"calculated_score"` // cached score, recalculated on save
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
