package models

import "time"

// Pickup types.
const (
	PickupDraft     = "draft"
	PickupFreeAgent = "free_agent"
)

type FantasyRoster struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	SeasonID             uint      `json:"season_id" gorm:"not null;uniqueIndex:uq_roster_entry"`
	FantasyPlayerID      uint      `json:"fantasy_player_id" gorm:"not null;uniqueIndex:uq_roster_entry"`
	CastawayID           uint      `json:"castaway_id" gorm:"not null;uniqueIndex:uq_roster_entry"`
	PickupType           string    `json:"pickup_type" gorm:"size:20;not null;default:'draft'"`
	DraftPosition        *int      `json:"draft_position"`           // what pick # this was
	PickedUpAfterEpisode *int      `json:"picked_up_after_episode"`  // for free agents, which episode triggered it
	IsActive             bool      `json:"is_active" gorm:"not null;default:true"` // toggled off when a castaway is dropped
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
