package models

import "time"

// Prediction is a pre-season call (first boot, winner, etc.), extensible via
// PredictionType. IsCorrect stays null until the commissioner resolves it.
type Prediction struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	SeasonID        uint      `json:"season_id" gorm:"not null;uniqueIndex:uq_prediction"`
	FantasyPlayerID uint      `json:"fantasy_player_id" gorm:"not null;uniqueIndex:uq_prediction"`
	PredictionType  string    `json:"prediction_type" gorm:"size:50;not null;uniqueIndex:uq_prediction"` // "first_boot", "winner", etc.
	CastawayID      uint      `json:"castaway_id" gorm:"not null"`
	IsCorrect       *bool     `json:"is_correct"` // null until resolved
	BonusPoints     float64   `json:"bonus_points" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
